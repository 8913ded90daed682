// SPDX-License-Identifier: EPL-2.0

package stage

import (
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
	"github.com/ik5/duckpipe/ringbuf"
	"github.com/ik5/duckpipe/task"
)

// ResamplerName is the stage name used in events and errors.
const ResamplerName = "resampler"

// Resampler converts decoded PCM to the output rate and channel count. It
// is configured from the StreamInfo of each START and never carries filter
// state from one session into the next.
type Resampler struct {
	filter   *audio.Resampler
	rate     int
	channels int
	in       *inlet
	out      *ringbuf.Lazy
	chunk    int

	raw     []byte
	rawLen  int
	samples []int16
	outPCM  []int16
	outBuf  []byte
	pending []byte

	frameBytes int
	announced  bool
	flushed    bool
}

// NewResampler returns a Resampler producing rate Hz with the given channel
// count.
func NewResampler(rate, channels int, b Buffers) *Resampler {
	b = b.withDefaults()

	return &Resampler{
		filter:   audio.NewResampler(),
		rate:     rate,
		channels: channels,
		in:       newInlet(b.Decoded),
		out:      ringbuf.NewLazy(b.Resampled),
		chunk:    b.Chunk,
	}
}

// Output describes the PCM the resampler produces.
func (r *Resampler) Output() audio.StreamInfo {
	return audio.StreamInfo{Channels: r.channels, BitsPerSample: 16, SampleRate: r.rate}
}

func (r *Resampler) Start(cmd task.Command) error {
	if err := r.in.ensure(); err != nil {
		return task.Wrap(task.ErrAllocation, ResamplerName, "start", err)
	}
	if err := r.out.Ensure(); err != nil {
		return task.Wrap(task.ErrAllocation, ResamplerName, "start", err)
	}
	if r.raw == nil {
		r.raw = make([]byte, r.chunk)
		r.samples = make([]int16, r.chunk/pcm.BytesPerSample)
		r.outPCM = make([]int16, r.chunk/pcm.BytesPerSample)
		r.outBuf = make([]byte, r.chunk)
	}

	if err := r.filter.Configure(cmd.Info, r.rate, r.channels); err != nil {
		return task.Wrap(task.ErrFormat, ResamplerName, "configure "+cmd.Info.String(), err)
	}
	r.frameBytes = cmd.Info.BytesPerFrame()
	r.in.Open()

	return nil
}

func (r *Resampler) Step(draining bool) task.Result {
	res := task.Result{Status: task.Idle}
	if !r.announced {
		r.announced = true
		res.Announce = true
		res.Info = r.Output()
		res.HasInfo = true
	}

	if len(r.pending) > 0 {
		n := r.out.Write(r.pending, 0)
		r.pending = r.pending[n:]
		res.Bytes = n
		if n > 0 {
			res.Status = task.Worked
		}
		if len(r.pending) > 0 {
			return res
		}
	}

	if r.flushed {
		if r.out.Available() == 0 {
			res.Status = task.Finished
		}
		return res
	}

	n := r.in.Read(r.raw[r.rawLen:])
	r.rawLen += n

	whole := r.rawLen - r.rawLen%r.frameBytes
	count := pcm.Decode(r.samples, r.raw[:whole])
	consumed, produced := r.filter.Process(r.samples[:count], r.outPCM)
	r.rawLen = copy(r.raw, r.raw[consumed*pcm.BytesPerSample:r.rawLen])

	if produced == 0 && draining && r.in.Available() == 0 && r.rawLen < r.frameBytes {
		var done bool
		produced, done = r.filter.Flush(r.outPCM)
		r.flushed = done
	}

	if produced > 0 {
		b := pcm.Encode(r.outBuf, r.outPCM[:produced]) * pcm.BytesPerSample
		w := r.out.Write(r.outBuf[:b], 0)
		r.pending = r.outBuf[w:b]
		res.Bytes += w
	}

	if n > 0 || consumed > 0 || produced > 0 {
		res.Status = task.Worked
	}

	return res
}

func (r *Resampler) Stop() {
	r.filter.Reset()
	r.in.Close()
	r.out.Reset()
	r.rawLen = 0
	r.pending = nil
	r.announced = false
	r.flushed = false
}

// Write accepts decoded PCM, up to Free.
func (r *Resampler) Write(p []byte) int { return r.in.Write(p) }

// Free returns how many PCM bytes Write accepts.
func (r *Resampler) Free() int { return r.in.Free() }

// Read moves up to len(p) bytes of resampled PCM out of the resampler.
func (r *Resampler) Read(p []byte) int { return r.out.Read(p, 0) }

// Available returns the number of resampled bytes ready to be read.
func (r *Resampler) Available() int { return r.out.Available() }
