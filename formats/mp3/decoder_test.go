// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"bytes"
	"errors"
	"io"
	"slices"
	"testing"
	"time"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/audiotest"
)

// mockMP3Reader simulates the gomp3.Decoder for testing. step limits how
// many bytes a single Read returns, which may split samples.
type mockMP3Reader struct {
	sampleRate int
	data       []byte
	step       int
	err        error
}

func (m *mockMP3Reader) SampleRate() int { return m.sampleRate }

func (m *mockMP3Reader) Read(buf []byte) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if len(m.data) == 0 {
		return 0, io.EOF
	}

	n := min(len(buf), len(m.data))
	if m.step > 0 {
		n = min(n, m.step)
	}
	copy(buf, m.data[:n])
	m.data = m.data[n:]

	return n, nil
}

func readAll(t *testing.T, s audio.Source, chunk int) []int16 {
	t.Helper()

	var out []int16
	buf := make([]int16, chunk)
	for {
		n, err := s.ReadPCM(buf)
		out = append(out, buf[:n]...)
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadPCM() error = %v", err)
		}
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("not an mp3 file at all")))
	if err == nil {
		t.Fatal("Decode() error = nil for non-MP3 input")
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := (Decoder{}).Decode(bytes.NewReader(nil)); err == nil {
		t.Fatal("Decode() error = nil for empty input")
	}
}

func TestSource_Info(t *testing.T) {
	t.Parallel()

	s := newSource(&mockMP3Reader{sampleRate: 44100})
	want := audio.StreamInfo{Channels: 2, BitsPerSample: 16, SampleRate: 44100}
	if got := s.Info(); got != want {
		t.Errorf("Info() = %+v, want %+v", got, want)
	}
}

func TestSource_ReadPCM(t *testing.T) {
	t.Parallel()

	samples := audiotest.Counter(1000, 2)

	tests := []struct {
		name  string
		step  int
		chunk int
	}{
		{"whole reads", 0, 512},
		{"odd byte reads", 3, 64},
		{"single sample buffer", 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newSource(&mockMP3Reader{sampleRate: 22050, data: audiotest.Bytes(samples), step: tt.step})
			if got := readAll(t, s, tt.chunk); !slices.Equal(got, samples) {
				t.Errorf("read %d samples differing from the %d written", len(got), len(samples))
			}
		})
	}
}

func TestSource_ReadPCM_Error(t *testing.T) {
	t.Parallel()

	s := newSource(&mockMP3Reader{sampleRate: 44100, err: io.ErrUnexpectedEOF})
	if _, err := s.ReadPCM(make([]int16, 16)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("ReadPCM() error = %v, want %v", err, io.ErrUnexpectedEOF)
	}
}

func TestSource_ReadPCM_EmptyBuffer(t *testing.T) {
	t.Parallel()

	s := newSource(&mockMP3Reader{sampleRate: 44100, data: []byte{1, 2}})
	if n, err := s.ReadPCM(nil); n != 0 || err != nil {
		t.Errorf("ReadPCM(nil) = %d, %v", n, err)
	}
}

func TestNewCodec_RejectsGarbage(t *testing.T) {
	t.Parallel()

	c := NewCodec()
	defer c.Close()

	in := bytes.Repeat([]byte("garbage!"), 64)
	out := make([]byte, 256)
	for range 2000 {
		consumed, _, status, err := c.Decode(in, out, true)
		in = in[consumed:]
		if status == audio.DecodeFatal {
			if err == nil {
				t.Error("fatal status without error")
			}
			return
		}
		if status == audio.DecodeEndOfStream {
			t.Fatal("garbage decoded to end of stream")
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("codec did not reject garbage input")
}

func BenchmarkSource_ReadPCM(b *testing.B) {
	data := audiotest.Bytes(audiotest.Counter(4096, 2))
	buf := make([]int16, 1024)

	b.ReportAllocs()
	for b.Loop() {
		s := newSource(&mockMP3Reader{sampleRate: 44100, data: data})
		for {
			if _, err := s.ReadPCM(buf); err != nil {
				break
			}
		}
	}
}
