// SPDX-License-Identifier: EPL-2.0

package task

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	err := Wrap(ErrIO, "reader", "pull", io.ErrUnexpectedEOF)
	if !errors.Is(err, ErrIO) {
		t.Errorf("errors.Is(%v, ErrIO) = false", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("errors.Is(%v, io.ErrUnexpectedEOF) = false", err)
	}
	if got, want := err.Error(), "i/o error: reader: pull: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	if got := Wrap(nil, "", "", nil).Error(); !strings.HasPrefix(got, ErrIO.Error()) {
		t.Errorf("Wrap(nil...) = %q, want ErrIO prefix", got)
	}
	if got, want := Wrap(ErrFormat, " decoder ", "", nil).Error(), "format error: decoder"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err      error
		marker   error
		terminal bool
	}{
		{Wrap(ErrAllocation, "decoder", "start", nil), ErrAllocation, true},
		{Wrap(ErrIO, "reader", "pull", io.EOF), ErrIO, false},
		{Wrap(ErrFormat, "decoder", "start", nil), ErrFormat, true},
		{Wrap(ErrDecodeRetryable, "decoder", "decode", nil), ErrDecodeRetryable, false},
		{Wrap(ErrDecodeFatal, "decoder", "decode", nil), ErrDecodeFatal, true},
		{Wrap(ErrOverflow, "speaker", "write", nil), ErrOverflow, false},
		{Wrap(ErrUnderrun, "speaker", "read", nil), ErrUnderrun, false},
		{io.EOF, nil, false},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.marker {
			t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.marker)
		}
		if got := IsTerminal(tt.err); got != tt.terminal {
			t.Errorf("IsTerminal(%v) = %v, want %v", tt.err, got, tt.terminal)
		}
	}
}
