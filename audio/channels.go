// SPDX-License-Identifier: EPL-2.0

package audio

import "github.com/ik5/duckpipe/internal/pcm"

// remix writes one frame of v (input channels) to dst (outCh channels).
// Mono is duplicated to stereo; stereo is averaged down to mono.
func remix(dst []int16, v []float64, outCh int) {
	switch {
	case len(v) == outCh:
		for c := range v {
			dst[c] = pcm.Clamp(v[c])
		}
	case len(v) == 1:
		s := pcm.Clamp(v[0])
		for c := range outCh {
			dst[c] = s
		}
	default:
		var sum float64
		for _, x := range v {
			sum += x
		}
		dst[0] = pcm.Clamp(sum / float64(len(v)))
	}
}
