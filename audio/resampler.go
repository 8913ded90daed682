// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"

	"github.com/ik5/duckpipe/internal/pcm"
)

const (
	// filterAlpha is the coefficient of the one-pole low-pass filter:
	// y[n] = alpha*x[n] + (1-alpha)*y[n-1].
	filterAlpha = 0.5

	// tailFrames is how many copies of the last input frame Flush feeds so
	// the interpolator reaches the end of the stream.
	tailFrames = 2
)

// Resampler converts interleaved 16-bit PCM between sample rates and
// channel layouts using cubic interpolation. It keeps its interpolation
// history across calls, so a stream can be pushed through it in arbitrary
// chunks.
//
// A one-pole low-pass filter runs ahead of the interpolator when
// downsampling and behind it when upsampling by more than 2x.
type Resampler struct {
	in         StreamInfo
	outRate    int
	outCh      int
	ratio      float64 // input frames per output frame
	configured bool

	// history: frames[1] is the frame at pos 0
	frames [4][]float64
	primed int
	pos    float64

	last []float64
	tail int

	preFilter  bool
	postFilter bool
	preState   []float64
	postState  []float64
	preReady   bool
	postReady  bool

	scratch []float64
	value   []float64
}

// NewResampler returns an unconfigured Resampler.
func NewResampler() *Resampler {
	return &Resampler{}
}

// Configure prepares the filter for a new stream and drops all history.
func (r *Resampler) Configure(in StreamInfo, targetRate, targetChannels int) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if targetRate <= 0 {
		return fmt.Errorf("%w: target rate %d", ErrUnsupportedFormat, targetRate)
	}
	if targetChannels < 1 || targetChannels > 2 {
		return fmt.Errorf("%w: target channels %d", ErrUnsupportedFormat, targetChannels)
	}

	r.in = in
	r.outRate = targetRate
	r.outCh = targetChannels
	r.ratio = float64(in.SampleRate) / float64(targetRate)
	r.preFilter = r.ratio > 1
	r.postFilter = r.ratio < 0.5

	ch := in.Channels
	for i := range r.frames {
		r.frames[i] = make([]float64, ch)
	}
	r.last = make([]float64, ch)
	r.preState = make([]float64, ch)
	r.postState = make([]float64, ch)
	r.scratch = make([]float64, ch)
	r.value = make([]float64, ch)
	r.configured = true
	r.Reset()

	return nil
}

// Reset drops the interpolation history but keeps the configuration.
func (r *Resampler) Reset() {
	r.primed = 0
	r.pos = 0
	r.tail = tailFrames
	r.preReady = false
	r.postReady = false
}

// Ratio returns input frames per output frame.
func (r *Resampler) Ratio() float64 { return r.ratio }

// Passthrough reports whether the rates match and only the channel layout
// is converted.
func (r *Resampler) Passthrough() bool { return r.configured && r.ratio == 1 }

// Process converts as much of in as fits into out. Both are interleaved
// samples; in uses the configured input layout, out the target layout.
// It returns the number of samples consumed from in and written to out.
// Partial frames at the end of in are left unconsumed.
func (r *Resampler) Process(in, out []int16) (consumed, produced int) {
	if !r.configured {
		return 0, 0
	}

	inCh := r.in.Channels
	inFrames := len(in) / inCh
	outFrames := len(out) / r.outCh

	if r.Passthrough() {
		n := min(inFrames, outFrames)
		for i := range n {
			for c := range inCh {
				r.value[c] = float64(in[i*inCh+c])
			}
			remix(out[i*r.outCh:], r.value, r.outCh)
		}
		return n * inCh, n * r.outCh
	}

	ci, po := 0, 0
	for po < outFrames {
		for r.primed < 4 || r.pos >= 1 {
			if ci >= inFrames {
				return ci * inCh, po * r.outCh
			}
			for c := range inCh {
				r.scratch[c] = float64(in[ci*inCh+c])
			}
			ci++
			if r.push(r.scratch) {
				r.pos--
			}
		}

		r.emit(out[po*r.outCh:])
		po++
		r.pos += r.ratio
	}

	return ci * inCh, po * r.outCh
}

// Flush drains the interpolation tail after the last input frame was
// processed. done is true once nothing more will be produced.
func (r *Resampler) Flush(out []int16) (produced int, done bool) {
	if !r.configured || r.primed == 0 || r.Passthrough() {
		return 0, true
	}

	outFrames := len(out) / r.outCh
	po := 0
	for po < outFrames {
		for r.primed < 4 || r.pos >= 1 {
			if r.tail == 0 {
				return po * r.outCh, true
			}
			r.tail--
			copy(r.scratch, r.last)
			if r.push(r.scratch) {
				r.pos--
			}
		}

		r.emit(out[po*r.outCh:])
		po++
		r.pos += r.ratio
	}

	return po * r.outCh, false
}

// push appends one raw input frame to the history and reports whether the
// history shifted.
func (r *Resampler) push(frame []float64) bool {
	copy(r.last, frame)

	if r.preFilter {
		if !r.preReady {
			copy(r.preState, frame)
			r.preReady = true
		}
		for c := range frame {
			frame[c] = filterAlpha*frame[c] + (1-filterAlpha)*r.preState[c]
			r.preState[c] = frame[c]
		}
	}

	switch r.primed {
	case 0:
		copy(r.frames[0], frame)
		copy(r.frames[1], frame)
		r.primed = 2
	case 2:
		copy(r.frames[2], frame)
		r.primed = 3
	case 3:
		copy(r.frames[3], frame)
		r.primed = 4
	default:
		oldest := r.frames[0]
		r.frames[0], r.frames[1], r.frames[2] = r.frames[1], r.frames[2], r.frames[3]
		r.frames[3] = oldest
		copy(r.frames[3], frame)
		return true
	}

	return false
}

func (r *Resampler) emit(dst []int16) {
	for c := range r.value {
		r.value[c] = pcm.Cubic(r.frames[0][c], r.frames[1][c], r.frames[2][c], r.frames[3][c], r.pos)
	}

	if r.postFilter {
		if !r.postReady {
			copy(r.postState, r.value)
			r.postReady = true
		}
		for c := range r.value {
			r.value[c] = filterAlpha*r.value[c] + (1-filterAlpha)*r.postState[c]
			r.postState[c] = r.value[c]
		}
	}

	remix(dst, r.value, r.outCh)
}
