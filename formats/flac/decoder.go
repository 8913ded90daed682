// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"errors"
	"fmt"
	"io"

	"github.com/ik5/duckpipe/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// frameReader is an interface for flac.Stream to allow testing
type frameReader interface {
	ParseNext() (*frame.Frame, error)
}

type source struct {
	dec        frameReader
	closer     io.Closer
	sampleRate int
	channels   int
	shift      int

	pending []int16 // interleaved samples of the current frame
	eof     bool
}

func (s *source) Info() audio.StreamInfo {
	return audio.StreamInfo{Channels: s.channels, BitsPerSample: 16, SampleRate: s.sampleRate}
}

func (s *source) Close() error {
	if s.closer == nil {
		return nil
	}

	return s.closer.Close()
}

func (s *source) ReadPCM(dst []int16) (int, error) {
	written := 0

	for written < len(dst) {
		if len(s.pending) == 0 {
			if s.eof {
				break
			}
			if err := s.nextFrame(); err != nil {
				if errors.Is(err, io.EOF) {
					s.eof = true
					break
				}
				return written, err
			}
			continue
		}

		n := copy(dst[written:], s.pending)
		s.pending = s.pending[n:]
		written += n
	}

	if written == 0 && s.eof {
		return 0, io.EOF
	}

	return written, nil
}

func (s *source) nextFrame() error {
	f, err := s.dec.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("%w", err)
	}
	if len(f.Subframes) != s.channels {
		return fmt.Errorf("%w: frame has %d channels, stream %d", ErrChannelMismatch, len(f.Subframes), s.channels)
	}

	block := len(f.Subframes[0].Samples)
	if cap(s.pending) < block*s.channels {
		s.pending = make([]int16, block*s.channels)
	}
	s.pending = s.pending[:block*s.channels]

	for c, sub := range f.Subframes {
		for i, v := range sub.Samples[:block] {
			if s.shift >= 0 {
				v <<= s.shift
			} else {
				v >>= -s.shift
			}
			s.pending[i*s.channels+c] = int16(v)
		}
	}

	return nil
}

type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	bps := int(stream.Info.BitsPerSample)
	if bps < 4 || bps > 32 {
		stream.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bps)
	}

	return &source{
		dec:        stream,
		closer:     stream,
		sampleRate: int(stream.Info.SampleRate),
		channels:   int(stream.Info.NChannels),
		shift:      16 - bps,
	}, nil
}

// NewCodec returns a push-style codec for one FLAC stream. It matches
// audio.CodecFactory.
func NewCodec() audio.Codec {
	return audio.NewStreamCodec(Decoder{})
}
