// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"

	"github.com/ik5/duckpipe/internal/pcm"
)

const (
	// duckSteps is the number of sub-steps a transition is split into.
	duckSteps = 10
	duckScale = 1 << duckSteps
)

// ducker holds the media attenuation. A transition of total samples moves
// the applied ratio from start to target in ten geometric sub-steps,
//
//	ratio(step) = start + (target-start) * 2^(step+1) / 2^10
//
// so the last sub-step applies exactly target. Each sub-step doubles the
// covered share: 1/512, 1/256 ... 1/2, 1, so half of the change happens
// at the last boundary (1 -> 0.3 goes 0.65 -> 0.3 there). A flatter curve
// means changing the exponent base, not duckSteps.
type ducker struct {
	current float64 // steady state once the transition ends

	start     float64
	target    float64
	total     int
	remaining int
}

func newDucker() ducker {
	return ducker{current: 1, start: 1, target: 1}
}

// set begins a transition to target over fade samples. The transition
// starts from the ratio applied at this moment.
func (d *ducker) set(target float64, fade int) {
	target = min(max(target, 0), 1)

	d.start = d.applied()
	d.target = target
	d.current = target
	d.total = max(fade, 0)
	d.remaining = d.total
}

// applied returns the ratio used for the next media sample.
func (d *ducker) applied() float64 {
	if d.remaining <= 0 {
		return d.current
	}

	return d.ratioAt(d.total - d.remaining)
}

// step returns the sub-step index of sample k of the transition. The last
// sample always falls in the last sub-step.
func (d *ducker) step(k int) int {
	return int((int64(k+1)*duckSteps+int64(d.total)-1)/int64(d.total)) - 1
}

func (d *ducker) ratioAt(k int) float64 {
	s := d.step(k)
	if s >= duckSteps-1 {
		return d.target
	}

	return d.start + (d.target-d.start)*math.Exp2(float64(s+1))/duckScale
}

// transitioning reports whether a fade is in progress.
func (d *ducker) transitioning() bool { return d.remaining > 0 }

// apply scales media in place and advances the transition by len(media)
// samples.
func (d *ducker) apply(media []int16) {
	if d.remaining <= 0 {
		if d.current < 1 {
			pcm.Scale(media, d.current)
		}
		return
	}

	i := 0
	for i < len(media) && d.remaining > 0 {
		k := d.total - d.remaining
		s := d.step(k)
		ratio := d.ratioAt(k)

		// samples left in this sub-step
		end := int(int64(s+1) * int64(d.total) / duckSteps)
		n := max(min(end-k, len(media)-i, d.remaining), 1)

		pcm.Scale(media[i:i+n], ratio)
		i += n
		d.remaining -= n
	}

	if i < len(media) && d.current < 1 {
		pcm.Scale(media[i:], d.current)
	}
}
