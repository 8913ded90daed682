// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"errors"
	"fmt"
	"io"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
)

// go-mp3 always produces 16-bit little-endian stereo.
const channels = 2

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

type source struct {
	dec        mp3Reader
	sampleRate int
	buf        []byte
	carry      int // bytes of an incomplete sample kept at the front of buf
}

func (s *source) Info() audio.StreamInfo {
	return audio.StreamInfo{Channels: channels, BitsPerSample: 16, SampleRate: s.sampleRate}
}

func (s *source) Close() error { return nil }

func (s *source) ReadPCM(dst []int16) (int, error) {
	bytesNeeded := len(dst) * pcm.BytesPerSample
	if bytesNeeded == 0 {
		return 0, nil
	}
	if cap(s.buf) < bytesNeeded {
		buf := make([]byte, bytesNeeded)
		copy(buf, s.buf[:s.carry])
		s.buf = buf
	}
	s.buf = s.buf[:bytesNeeded]

	n, err := s.dec.Read(s.buf[s.carry:])
	n += s.carry

	samples := pcm.Decode(dst, s.buf[:n])
	s.carry = copy(s.buf, s.buf[samples*pcm.BytesPerSample:n])

	if errors.Is(err, io.EOF) {
		return samples, io.EOF
	}
	if err != nil {
		return samples, fmt.Errorf("%w", err)
	}

	return samples, nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	return newSource(dec), nil
}

func newSource(dec mp3Reader) *source {
	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		buf:        make([]byte, 8192),
	}
}

// NewCodec returns a push-style codec for one MP3 stream. It matches
// audio.CodecFactory.
func NewCodec() audio.Codec {
	return audio.NewStreamCodec(Decoder{})
}
