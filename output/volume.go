// SPDX-License-Identifier: EPL-2.0

package output

import (
	"math"
	"sync/atomic"

	"github.com/ik5/duckpipe/internal/pcm"
)

// MinVolumeDB is the attenuation applied at the lowest non-zero volume.
const MinVolumeDB = -50.0

// Volume is a software volume control with mute. Levels are in [0, 1] and
// map to gain on a decibel curve; 0 is silence. It is safe for concurrent
// use.
type Volume struct {
	level atomic.Uint64 // math.Float64bits
	muted atomic.Bool
}

// NewVolume returns a Volume at level.
func NewVolume(level float64) *Volume {
	v := &Volume{}
	v.Set(level)

	return v
}

// Set changes the level, clamped to [0, 1], and returns the new level.
func (v *Volume) Set(level float64) float64 {
	level = clampLevel(level)
	v.level.Store(math.Float64bits(level))

	return level
}

// Add changes the level by delta and returns the new level.
func (v *Volume) Add(delta float64) float64 {
	for {
		old := v.level.Load()
		level := clampLevel(math.Float64frombits(old) + delta)
		if v.level.CompareAndSwap(old, math.Float64bits(level)) {
			return level
		}
	}
}

func (v *Volume) Level() float64 { return math.Float64frombits(v.level.Load()) }

func (v *Volume) Mute() { v.muted.Store(true) }

func (v *Volume) Unmute() { v.muted.Store(false) }

func (v *Volume) Muted() bool { return v.muted.Load() }

// Gain returns the linear factor applied to samples.
func (v *Volume) Gain() float64 {
	if v.Muted() {
		return 0
	}

	return Gain(v.Level())
}

// Apply scales samples in place by Gain.
func (v *Volume) Apply(samples []int16) {
	g := v.Gain()
	if g == 1 {
		return
	}

	pcm.Scale(samples, g)
}

// Gain maps a level in [0, 1] to a linear factor: 1 is unity, each step
// below it attenuates on a decibel scale down to MinVolumeDB, and 0 is
// silence.
func Gain(level float64) float64 {
	level = clampLevel(level)
	switch level {
	case 0:
		return 0
	case 1:
		return 1
	}

	return math.Pow(10, (1-level)*MinVolumeDB/20)
}

func clampLevel(level float64) float64 {
	if math.IsNaN(level) {
		return 0
	}

	return min(max(level, 0), 1)
}
