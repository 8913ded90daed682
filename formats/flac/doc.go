// SPDX-License-Identifier: EPL-2.0

// Package flac decodes FLAC audio using github.com/mewkiz/flac.
//
// Frames are decoded one at a time and interleaved into 16-bit PCM;
// samples of other widths are shifted to 16 bits.
//
//	registry.Register(audio.ContainerFLAC, flac.NewCodec)
package flac
