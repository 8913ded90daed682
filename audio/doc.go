// SPDX-License-Identifier: EPL-2.0

// Package audio provides the audio primitives shared by the pipeline.
//
// This package contains:
//   - StreamInfo, the {channels, bits per sample, sample rate} triple
//   - ContainerType and the helpers that detect it from names, MIME types
//     and magic numbers
//   - Codec, the push-style decoder contract driven by the decoder stage
//   - Decoder and Source, the pull-style contract the format packages
//     implement, and StreamCodec which adapts one to the other
//   - Registry, mapping container types to codec factories
//   - Resampler, a streaming rate and channel converter
//
// # Internal PCM
//
// Everything downstream of a codec is signed 16-bit little-endian PCM,
// interleaved, mono or stereo.
//
// # Codecs
//
// A Codec is fed raw container bytes and returns PCM:
//
//	consumed, produced, status, err := codec.Decode(in, out, endOfInput)
//
// It may consume only part of in; the caller keeps the rest for the next
// call. status tells the caller whether to continue, wait for more input,
// retry, give up or stop at the end of the stream.
//
// Libraries that only offer an io.Reader based API are wrapped with
// NewStreamCodec, which runs the library on its own goroutine.
//
// # Resampling
//
// The Resampler uses cubic interpolation and keeps its history between
// calls, so output does not depend on how the input was chunked:
//
//	r := audio.NewResampler()
//	_ = r.Configure(info, 16000, 2)
//	consumed, produced := r.Process(in, out)
//	// at end of stream
//	produced, done := r.Flush(out)
//
// Mono input is duplicated to stereo and stereo is averaged to mono when
// the target layout differs.
package audio
