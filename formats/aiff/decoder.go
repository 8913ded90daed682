// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/duckpipe/audio"
)

// aiffReader is the part of aiff.Decoder the source reads from.
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source converts go-audio integer buffers of any supported depth to s16.
type source struct {
	dec        aiffReader
	sampleRate int
	channels   int
	shift      int // left shift (negative: right) bringing samples to 16 bits
	intBuf     *goaudio.IntBuffer
}

func (s *source) Info() audio.StreamInfo {
	return audio.StreamInfo{Channels: s.channels, BitsPerSample: 16, SampleRate: s.sampleRate}
}

func (s *source) Close() error { return nil }

func (s *source) ReadPCM(dst []int16) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < len(dst) {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, len(dst)),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:len(dst)]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	for i := range n {
		v := s.intBuf.Data[i]
		if s.shift >= 0 {
			v <<= s.shift
		} else {
			v >>= -s.shift
		}
		dst[i] = int16(v)
	}

	if n == 0 && err == nil {
		return 0, io.EOF
	}
	if errors.Is(err, io.EOF) {
		return n, io.EOF
	}
	if err != nil {
		return n, fmt.Errorf("aiff: read PCM: %w", err)
	}

	return n, nil
}

// Decoder opens AIFF files with go-audio/aiff.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		// the whole file has to be in memory; AIFF has no streaming form
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}

	dec.ReadInfo()

	format := dec.Format()
	if format == nil {
		return nil, ErrUnsupportedAiffLayout
	}

	shift, err := shiftFor(int(dec.BitDepth))
	if err != nil {
		return nil, err
	}

	return &source{
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		shift:      shift,
	}, nil
}

func shiftFor(bitDepth int) (int, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return 16 - bitDepth, nil
	}

	return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
}

// NewCodec returns a push-style codec for one AIFF file. It matches
// audio.CodecFactory. PCM is produced once the whole file has arrived.
func NewCodec() audio.Codec {
	return audio.NewStreamCodec(Decoder{})
}
