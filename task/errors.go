// SPDX-License-Identifier: EPL-2.0

package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAllocation      = errors.New("allocation failed")
	ErrIO              = errors.New("i/o error")
	ErrFormat          = errors.New("format error")
	ErrDecodeRetryable = errors.New("retryable decode error")
	ErrDecodeFatal     = errors.New("fatal decode error")
	ErrOverflow        = errors.New("output overflow")
	ErrUnderrun        = errors.New("input underrun")
)

var markers = []error{
	ErrAllocation, ErrIO, ErrFormat, ErrDecodeRetryable,
	ErrDecodeFatal, ErrOverflow, ErrUnderrun,
}

// Wrap builds an error that includes stage context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above; nil is treated as ErrIO.
func Wrap(marker error, stage, operation string, err error) error {
	if marker == nil {
		marker = ErrIO
	}

	detail := buildDetail(stage, operation)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}

	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify returns the marker err was tagged with, or nil.
func Classify(err error) error {
	for _, m := range markers {
		if errors.Is(err, m) {
			return m
		}
	}

	return nil
}

// IsTerminal reports whether a WARNING carrying err ends the session.
// Transient I/O and overflow/underrun warnings do not.
func IsTerminal(err error) bool {
	switch {
	case errors.Is(err, ErrAllocation), errors.Is(err, ErrFormat), errors.Is(err, ErrDecodeFatal):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation string) string {
	parts := make([]string, 0, 2)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "stage failure"
	}

	return strings.Join(parts, ": ")
}
