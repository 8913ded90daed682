// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files.
// AIFF is Apple's standard audio file format, commonly used on macOS.
//
// # Supported Formats
//
//   - PCM 8, 16, 24 and 32 bit, scaled to 16-bit output
//   - Mono and stereo
//   - Any sample rate
//
// go-audio needs an io.ReadSeeker, so a streamed file is buffered in
// memory and decoding starts once the last byte has arrived.
//
//	registry.Register(audio.ContainerAIFF, aiff.NewCodec)
//
// # Errors
//
//   - ErrNotAiffFile: the input is not FORM/AIFF
//   - ErrUnsupportedBitDepth: sample size is not 8, 16, 24 or 32 bits
//   - ErrUnsupportedAiffLayout: the COMM chunk could not be read
package aiff
