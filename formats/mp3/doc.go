// SPDX-License-Identifier: EPL-2.0

// Package mp3 decodes MPEG-1/2 Layer III audio using
// github.com/hajimehoshi/go-mp3.
//
// Decoder is the pull-style decoder; NewCodec wraps it for the decoder
// stage. Output is always 16-bit stereo at the stream's sample rate; mono
// files are upmixed by the library.
//
//	registry.Register(audio.ContainerMP3, mp3.NewCodec)
package mp3
