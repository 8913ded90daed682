// SPDX-License-Identifier: EPL-2.0

// Package pcm holds the sample-level helpers shared by the codecs, the
// resampler and the mixer. Internal PCM is signed 16-bit little-endian,
// interleaved.
package pcm

import (
	"encoding/binary"
	"math"
)

// BytesPerSample is the size of one internal PCM sample.
const BytesPerSample = 2

// Cubic performs Catmull-Rom interpolation between y1 and y2.
// x is the fractional position (0 <= x <= 1); y0 and y3 are the outer
// neighbours.
func Cubic(y0, y1, y2, y3, x float64) float64 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// Clamp rounds v to the nearest integer and saturates it to the int16 range.
func Clamp(v float64) int16 {
	v = math.Round(v)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}

	return int16(v)
}

// FromFloat32 converts a normalized [-1,1] sample to int16, clamping
// anything outside that range.
func FromFloat32(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 for positive max to avoid overflow
	return int16(x * 32767.0)
}

// Decode converts little-endian bytes into samples. It returns the number
// of samples written; a trailing odd byte is ignored.
func Decode(dst []int16, src []byte) int {
	n := min(len(dst), len(src)/BytesPerSample)
	for i := range n {
		dst[i] = int16(binary.LittleEndian.Uint16(src[i*2:]))
	}

	return n
}

// Encode converts samples into little-endian bytes and returns the number
// of samples written.
func Encode(dst []byte, src []int16) int {
	n := min(len(src), len(dst)/BytesPerSample)
	for i := range n {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(src[i]))
	}

	return n
}

// Scale multiplies every sample by ratio in place, truncating toward zero.
func Scale(samples []int16, ratio float64) {
	if ratio == 1 {
		return
	}

	for i, s := range samples {
		samples[i] = int16(float64(s) * ratio)
	}
}
