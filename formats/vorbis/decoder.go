// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
	"github.com/jfreymuth/oggvorbis"
)

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	Read([]float32) (int, error)
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	floatBuf   []float32
}

func (s *source) Info() audio.StreamInfo {
	return audio.StreamInfo{Channels: s.channels, BitsPerSample: 16, SampleRate: s.sampleRate}
}

func (s *source) Close() error { return nil }

func (s *source) ReadPCM(dst []int16) (int, error) {
	// whole frames only
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}

	if cap(s.floatBuf) < want {
		s.floatBuf = make([]float32, want)
	}
	s.floatBuf = s.floatBuf[:want]

	// Read returns the number of values (frames * channels) decoded
	n, err := s.dec.Read(s.floatBuf)
	for i := range n {
		dst[i] = pcm.FromFloat32(s.floatBuf[i])
	}

	if errors.Is(err, io.EOF) {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}

	return n, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec oggReader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   max(dec.Channels(), 1),
		floatBuf:   make([]float32, 4096),
	}
}

// NewCodec returns a push-style codec for one Ogg Vorbis stream. It matches
// audio.CodecFactory.
func NewCodec() audio.Codec {
	return audio.NewStreamCodec(Decoder{})
}
