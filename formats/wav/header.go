// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
)

// HeaderSize is the size of the canonical header written by WriteHeader.
const HeaderSize = 44

// Header returns a canonical 44-byte PCM WAV header for dataSize bytes of
// PCM in the given format. Pass UnknownDataSize when the length is not
// known yet.
func Header(info audio.StreamInfo, dataSize uint32) []byte {
	numChannels := uint16(info.Channels)
	bitsPerSample := uint16(info.BitsPerSample)
	blockAlign := numChannels * bitsPerSample / 8
	byteRate := uint32(info.SampleRate) * uint32(blockAlign)

	riffSize := uint32(UnknownDataSize)
	if dataSize != UnknownDataSize {
		riffSize = 36 + dataSize
	}

	header := make([]byte, HeaderSize)

	// RIFF header (12 bytes)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], riffSize)
	copy(header[8:12], "WAVE")

	// fmt chunk (24 bytes)
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], minFmtSize)
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], numChannels)
	binary.LittleEndian.PutUint32(header[24:28], uint32(info.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	// data chunk header (8 bytes)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	return header
}

// WriteHeader writes Header(info, dataSize) to w.
func WriteHeader(w io.Writer, info audio.StreamInfo, dataSize uint32) error {
	if _, err := w.Write(Header(info, dataSize)); err != nil {
		return fmt.Errorf("wav: write data: %w", err)
	}

	return nil
}

// Encode writes a complete 16-bit PCM WAV file holding samples.
func Encode(w io.Writer, info audio.StreamInfo, samples []int16) error {
	if err := info.Validate(); err != nil {
		return err
	}
	if err := WriteHeader(w, info, uint32(len(samples)*pcm.BytesPerSample)); err != nil {
		return err
	}

	// 4096 samples per write
	const chunkSize = 4096
	buf := make([]byte, min(len(samples), chunkSize)*pcm.BytesPerSample)

	for i := 0; i < len(samples); i += chunkSize {
		chunk := samples[i:min(i+chunkSize, len(samples))]
		n := pcm.Encode(buf, chunk)

		if _, err := w.Write(buf[:n*pcm.BytesPerSample]); err != nil {
			return fmt.Errorf("wav: write data: %w", err)
		}
	}

	return nil
}
