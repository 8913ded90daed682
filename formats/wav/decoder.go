// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/ik5/duckpipe/audio"
)

const (
	riffHeaderSize  = 12
	chunkHeaderSize = 8
	minFmtSize      = 16
	maxFmtSize      = 64

	formatPCM        = 0x0001
	formatExtensible = 0xFFFE

	// UnknownDataSize marks a data chunk whose length is not known up
	// front, as written by streaming encoders.
	UnknownDataSize = 0xFFFFFFFF
)

type parseState int

const (
	stateRIFF parseState = iota
	stateChunk
	stateSkip
	stateData
	stateDone
)

// Codec is an incremental WAV parser. It accepts the file in arbitrary
// pieces, skips chunks it does not need and passes the PCM payload through.
type Codec struct {
	state parseState

	info    audio.StreamInfo
	hasInfo bool

	skip      uint32
	remaining int64 // -1 when the data size is unknown
}

// NewCodec returns a Codec ready for a new stream. It matches
// audio.CodecFactory.
func NewCodec() audio.Codec {
	return &Codec{}
}

func (c *Codec) StreamInfo() (audio.StreamInfo, bool) { return c.info, c.hasInfo }
func (c *Codec) Close() error                         { return nil }

func (c *Codec) Decode(in, out []byte, endOfInput bool) (int, int, audio.DecodeStatus, error) {
	consumed, err := c.parseHeader(in)
	if err != nil {
		return consumed, 0, audio.DecodeFatal, err
	}

	switch c.state {
	case stateData:
	case stateDone:
		return len(in), 0, audio.DecodeEndOfStream, nil
	default:
		if endOfInput {
			return consumed, 0, audio.DecodeFatal, ErrTruncated
		}
		if consumed > 0 {
			return consumed, 0, audio.DecodeMore, nil
		}
		return 0, 0, audio.DecodeIdle, nil
	}

	frame := c.info.BytesPerFrame()
	avail := int64(len(in) - consumed)
	if c.remaining >= 0 {
		avail = min(avail, c.remaining)
	}
	n := min(int(avail), len(out))
	n -= n % frame

	copy(out, in[consumed:consumed+n])
	consumed += n
	if c.remaining >= 0 {
		c.remaining -= int64(n)
		if c.remaining < int64(frame) {
			c.state = stateDone
		}
	}

	switch {
	case n > 0:
		return consumed, n, audio.DecodeMore, nil
	case c.state == stateDone:
		return len(in), 0, audio.DecodeEndOfStream, nil
	case endOfInput && len(in)-consumed < frame:
		// a trailing partial frame is dropped
		c.state = stateDone
		return len(in), 0, audio.DecodeEndOfStream, nil
	case consumed > 0:
		return consumed, 0, audio.DecodeMore, nil
	}

	return consumed, 0, audio.DecodeIdle, nil
}

// parseHeader walks the RIFF structure until the data chunk begins. It
// returns the number of header bytes consumed from in.
func (c *Codec) parseHeader(in []byte) (int, error) {
	consumed := 0

	for {
		rest := in[consumed:]

		switch c.state {
		case stateRIFF:
			if len(rest) < riffHeaderSize {
				return consumed, nil
			}
			if !bytes.HasPrefix(rest, []byte("RIFF")) || !bytes.Equal(rest[8:12], []byte("WAVE")) {
				return consumed, ErrNotWavFile
			}
			consumed += riffHeaderSize
			c.state = stateChunk

		case stateChunk:
			if len(rest) < chunkHeaderSize {
				return consumed, nil
			}
			id := string(rest[:4])
			size := binary.LittleEndian.Uint32(rest[4:8])

			switch id {
			case "fmt ":
				if size < minFmtSize || size > maxFmtSize {
					return consumed, fmt.Errorf("%w: fmt chunk of %d bytes", ErrUnsupportedWavLayout, size)
				}
				body := int(size + size&1)
				if len(rest) < chunkHeaderSize+body {
					return consumed, nil
				}
				if err := c.parseFmt(rest[chunkHeaderSize : chunkHeaderSize+int(size)]); err != nil {
					return consumed, err
				}
				consumed += chunkHeaderSize + body

			case "data":
				if !c.hasInfo {
					return consumed, fmt.Errorf("%w: data before fmt", ErrUnsupportedWavChunks)
				}
				consumed += chunkHeaderSize
				c.remaining = int64(size)
				if size == 0 || size == UnknownDataSize {
					c.remaining = -1
				}
				c.state = stateData
				return consumed, nil

			default:
				consumed += chunkHeaderSize
				c.skip = size + size&1
				c.state = stateSkip
			}

		case stateSkip:
			n := min(uint32(len(rest)), c.skip)
			consumed += int(n)
			c.skip -= n
			if c.skip > 0 {
				return consumed, nil
			}
			c.state = stateChunk

		default:
			return consumed, nil
		}
	}
}

func (c *Codec) parseFmt(b []byte) error {
	audioFormat := binary.LittleEndian.Uint16(b[0:2])
	channels := int(binary.LittleEndian.Uint16(b[2:4]))
	sampleRate := int(binary.LittleEndian.Uint32(b[4:8]))
	bitsPerSample := int(binary.LittleEndian.Uint16(b[14:16]))

	if audioFormat != formatPCM && audioFormat != formatExtensible {
		return fmt.Errorf("%w: format tag %#04x", ErrOnlyPCM16bitSupported, audioFormat)
	}
	if bitsPerSample != 16 {
		return fmt.Errorf("%w: %d bits", ErrOnlyPCM16bitSupported, bitsPerSample)
	}

	info := audio.StreamInfo{Channels: channels, BitsPerSample: bitsPerSample, SampleRate: sampleRate}
	if err := info.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnsupportedWavLayout, err)
	}

	c.info = info
	c.hasInfo = true

	return nil
}
