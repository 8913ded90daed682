// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"slices"
	"testing"
)

type nopCodec struct{}

func (nopCodec) Decode(in, out []byte, eoi bool) (int, int, DecodeStatus, error) {
	return len(in), 0, DecodeIdle, nil
}
func (nopCodec) StreamInfo() (StreamInfo, bool) { return StreamInfo{}, false }
func (nopCodec) Close() error                   { return nil }

func TestRegistry_RegisterAndNew(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	calls := 0
	registry.Register(ContainerWAV, func() Codec {
		calls++
		return nopCodec{}
	})

	for range 2 {
		c, err := registry.New(ContainerWAV)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if c == nil {
			t.Fatal("New() returned nil codec")
		}
	}
	if calls != 2 {
		t.Errorf("factory called %d times, want a fresh codec per session", calls)
	}
}

func TestRegistry_Unknown(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	if _, ok := registry.Get(ContainerMP3); ok {
		t.Error("Get() returned ok=true for unregistered container")
	}
	if _, err := registry.New(ContainerMP3); !errors.Is(err, ErrNoCodec) {
		t.Errorf("New() error = %v, want %v", err, ErrNoCodec)
	}
}

func TestRegistry_Containers(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	for _, ct := range []ContainerType{ContainerOgg, ContainerWAV, ContainerFLAC} {
		registry.Register(ct, func() Codec { return nopCodec{} })
	}

	want := []ContainerType{ContainerWAV, ContainerFLAC, ContainerOgg}
	if got := registry.Containers(); !slices.Equal(got, want) {
		t.Errorf("Containers() = %v, want %v", got, want)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	done := make(chan struct{})
	for i := range 10 {
		go func() {
			defer func() { done <- struct{}{} }()
			ct := ContainerType(i%5 + 1)
			registry.Register(ct, func() Codec { return nopCodec{} })
			registry.Get(ct)
			registry.Containers()
		}()
	}
	for range 10 {
		<-done
	}
}

func TestStreamInfo(t *testing.T) {
	t.Parallel()

	si := StreamInfo{Channels: 2, BitsPerSample: 16, SampleRate: 16000}
	if got := si.BytesPerFrame(); got != 4 {
		t.Errorf("BytesPerFrame() = %d, want 4", got)
	}
	if err := si.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if got := si.String(); got != "16000 Hz, 2 ch, 16 bit" {
		t.Errorf("String() = %q", got)
	}

	bad := []StreamInfo{
		{Channels: 0, BitsPerSample: 16, SampleRate: 8000},
		{Channels: 1, BitsPerSample: 24, SampleRate: 8000},
		{Channels: 1, BitsPerSample: 16, SampleRate: 0},
	}
	for _, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Validate(%+v) error = %v, want %v", b, err, ErrUnsupportedFormat)
		}
	}
}

func TestDecodeStatus_String(t *testing.T) {
	t.Parallel()

	if DecodeEndOfStream.String() != "end-of-stream" {
		t.Errorf("String() = %q", DecodeEndOfStream.String())
	}
	if DecodeStatus(42).String() != "DecodeStatus(42)" {
		t.Errorf("String() = %q", DecodeStatus(42).String())
	}
}
