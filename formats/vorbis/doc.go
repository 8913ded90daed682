// SPDX-License-Identifier: EPL-2.0

// Package vorbis decodes Ogg Vorbis audio using
// github.com/jfreymuth/oggvorbis.
//
// The library produces float32 samples in [-1,1]; they are converted to
// 16-bit PCM before leaving this package. Streams with more than two
// channels are rejected by the pipeline when the stream info is checked.
//
//	registry.Register(audio.ContainerOgg, vorbis.NewCodec)
package vorbis
