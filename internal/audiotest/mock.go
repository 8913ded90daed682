// SPDX-License-Identifier: EPL-2.0

// Package audiotest builds PCM and WAV fixtures for tests.
// It does not import the audio packages so that their own tests can use it.
package audiotest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Generate builds frames*channels interleaved samples from waveform.
func Generate(frames, channels int, waveform func(frame, channel int) int16) []int16 {
	out := make([]int16, frames*channels)
	for f := range frames {
		for c := range channels {
			out[f*channels+c] = waveform(f, c)
		}
	}

	return out
}

// Constant returns a signal holding v on every channel.
func Constant(frames, channels int, v int16) []int16 {
	return Generate(frames, channels, func(int, int) int16 { return v })
}

// Silence returns frames of zero samples.
func Silence(frames, channels int) []int16 {
	return make([]int16, frames*channels)
}

// Sine returns a sine tone of the given frequency and peak amplitude.
func Sine(sampleRate, channels, frames int, frequency float64, amplitude int16) []int16 {
	return Generate(frames, channels, func(f, _ int) int16 {
		t := float64(f) / float64(sampleRate)
		return int16(float64(amplitude) * math.Sin(2*math.Pi*frequency*t))
	})
}

// Counter returns a sample pattern where every value differs from its
// neighbours, handy for spotting dropped or reordered bytes.
func Counter(frames, channels int) []int16 {
	return Generate(frames, channels, func(f, c int) int16 {
		return int16((f*channels + c) * 7)
	})
}

// Bytes encodes samples as 16-bit little-endian PCM.
func Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}

	return out
}

// Samples decodes 16-bit little-endian PCM.
func Samples(b []byte) []int16 {
	out := make([]int16, len(b)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}

	return out
}

// WAV returns a canonical 44-byte-header PCM WAV file.
func WAV(sampleRate, channels int, samples []int16) []byte {
	return WAVWithChunks(sampleRate, channels, samples, nil)
}

// WAVWithChunks is WAV with extra chunks placed between "fmt " and "data".
// Each entry of extra is a complete chunk: id, size and payload.
func WAVWithChunks(sampleRate, channels int, samples []int16, extra [][]byte) []byte {
	buf := new(bytes.Buffer)

	numChannels := uint16(channels)
	bits := uint16(16)
	byteRate := uint32(sampleRate) * uint32(numChannels) * uint32(bits/8)
	blockAlign := numChannels * bits / 8
	dataSize := uint32(len(samples) * 2)

	extraSize := 0
	for _, c := range extra {
		extraSize += len(c)
	}
	riffSize := 36 + uint32(extraSize) + dataSize

	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, riffSize)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(buf, binary.LittleEndian, numChannels)
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, byteRate)
	_ = binary.Write(buf, binary.LittleEndian, blockAlign)
	_ = binary.Write(buf, binary.LittleEndian, bits)

	for _, c := range extra {
		buf.Write(c)
	}

	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(Bytes(samples))

	return buf.Bytes()
}

// Chunk builds a RIFF chunk with the given id and payload, padded to an
// even size.
func Chunk(id string, payload []byte) []byte {
	buf := new(bytes.Buffer)
	buf.WriteString(id)
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	if len(payload)%2 == 1 {
		buf.WriteByte(0)
	}

	return buf.Bytes()
}
