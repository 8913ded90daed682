// SPDX-License-Identifier: EPL-2.0

package duckpipe

import (
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/formats/aiff"
	"github.com/ik5/duckpipe/formats/flac"
	"github.com/ik5/duckpipe/formats/mp3"
	"github.com/ik5/duckpipe/formats/vorbis"
	"github.com/ik5/duckpipe/formats/wav"
)

// NewRegistry returns a registry with every built-in codec.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register(audio.ContainerWAV, wav.NewCodec)
	r.Register(audio.ContainerMP3, mp3.NewCodec)
	r.Register(audio.ContainerFLAC, flac.NewCodec)
	r.Register(audio.ContainerOgg, vorbis.NewCodec)
	r.Register(audio.ContainerAIFF, aiff.NewCodec)

	return r
}
