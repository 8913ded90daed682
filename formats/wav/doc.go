// SPDX-License-Identifier: EPL-2.0

// Package wav provides incremental WAV decoding and WAV header writing.
//
// # Decoding
//
// Codec parses a RIFF/WAVE stream as it arrives. Bytes can be handed over
// in any split; the codec consumes what it can and reports how much:
//
//	c := wav.NewCodec()
//	consumed, produced, status, err := c.Decode(in, out, endOfInput)
//
// Chunks other than "fmt " and "data" (LIST, fact, cue, ...) are skipped.
// A data chunk with size 0 or UnknownDataSize runs until end of input, which
// is how streaming encoders write it.
//
// # Supported Formats
//
//   - PCM 16-bit (format tag 1, or WAVE_FORMAT_EXTENSIBLE)
//   - Mono and stereo
//   - Any sample rate
//
// # Writing
//
// Header builds the canonical 44-byte header and Encode writes a complete
// file:
//
//	info := audio.StreamInfo{Channels: 2, BitsPerSample: 16, SampleRate: 16000}
//	err := wav.Encode(file, info, samples)
//
// # Errors
//
//   - ErrNotWavFile: the input is not RIFF/WAVE
//   - ErrOnlyPCM16bitSupported: compressed, float or non 16-bit data
//   - ErrUnsupportedWavLayout: bad fmt chunk or channel count
//   - ErrUnsupportedWavChunks: data chunk before the fmt chunk
//   - ErrTruncated: input ended inside the header
package wav
