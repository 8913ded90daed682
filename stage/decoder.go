// SPDX-License-Identifier: EPL-2.0

package stage

import (
	"errors"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/ringbuf"
	"github.com/ik5/duckpipe/task"
)

// DecoderName is the stage name used in events and errors.
const DecoderName = "decoder"

// Decoder turns raw container bytes into 16-bit PCM using a codec from a
// registry. It announces the StreamInfo once the codec knows it.
type Decoder struct {
	registry *audio.Registry
	in       *inlet
	out      *ringbuf.Lazy
	chunk    int

	work    []byte
	workLen int
	pcm     []byte
	pending []byte

	codec     audio.Codec
	container audio.ContainerType
	announced bool
	eos       bool
}

func NewDecoder(registry *audio.Registry, b Buffers) *Decoder {
	b = b.withDefaults()

	return &Decoder{
		registry: registry,
		in:       newInlet(b.Raw),
		out:      ringbuf.NewLazy(b.Decoded),
		chunk:    b.Chunk,
	}
}

func (d *Decoder) Start(cmd task.Command) error {
	if err := d.in.ensure(); err != nil {
		return task.Wrap(task.ErrAllocation, DecoderName, "start", err)
	}
	if err := d.out.Ensure(); err != nil {
		return task.Wrap(task.ErrAllocation, DecoderName, "start", err)
	}
	if d.work == nil {
		d.work = make([]byte, d.chunk)
		d.pcm = make([]byte, d.chunk)
	}

	codec, err := d.registry.New(cmd.Container)
	if err != nil {
		return task.Wrap(task.ErrFormat, DecoderName, "start", err)
	}
	d.codec = codec
	d.container = cmd.Container
	d.in.Open()

	return nil
}

func (d *Decoder) Step(draining bool) task.Result {
	res := task.Result{Status: task.Idle}

	if len(d.pending) > 0 {
		n := d.out.Write(d.pending, 0)
		d.pending = d.pending[n:]
		res.Bytes = n
		if n > 0 {
			res.Status = task.Worked
		}
		if len(d.pending) > 0 {
			return res
		}
	}

	if d.eos {
		if d.out.Available() == 0 {
			res.Status = task.Finished
		}
		return res
	}

	// unconsumed input stays at the front of the working buffer
	n := d.in.Read(d.work[d.workLen:])
	d.workLen += n
	endOfInput := draining && d.in.Available() == 0

	consumed, produced, status, err := d.codec.Decode(d.work[:d.workLen], d.pcm, endOfInput)
	d.workLen = copy(d.work, d.work[consumed:d.workLen])

	if info, ok := d.codec.StreamInfo(); ok && !d.announced {
		d.announced = true
		res.Announce = true
		res.Container = d.container
		res.Info = info
		res.HasInfo = true
	}

	if produced > 0 {
		w := d.out.Write(d.pcm[:produced], 0)
		d.pending = d.pcm[w:produced]
		res.Bytes += w
	}

	switch status {
	case audio.DecodeMore:
		res.Status = task.Worked
	case audio.DecodeIdle:
		if n > 0 || consumed > 0 || produced > 0 {
			res.Status = task.Worked
		}
	case audio.DecodeRetryable:
		res.Status = task.Retry
		res.Err = task.Wrap(task.ErrDecodeRetryable, DecoderName, "decode", err)
	case audio.DecodeFatal:
		marker := task.ErrDecodeFatal
		if !d.announced || errors.Is(err, audio.ErrUnsupportedFormat) {
			marker = task.ErrFormat
		}
		res.Status = task.Failed
		res.Err = task.Wrap(marker, DecoderName, "decode", err)
	case audio.DecodeEndOfStream:
		d.eos = true
		res.Status = task.Worked
	}

	return res
}

func (d *Decoder) Stop() {
	if d.codec != nil {
		d.codec.Close()
		d.codec = nil
	}

	d.in.Close()
	d.out.Reset()
	d.workLen = 0
	d.pending = nil
	d.container = audio.ContainerNone
	d.announced = false
	d.eos = false
}

// Write accepts raw container bytes, up to Free.
func (d *Decoder) Write(p []byte) int { return d.in.Write(p) }

// Free returns how many raw bytes Write accepts.
func (d *Decoder) Free() int { return d.in.Free() }

// Read moves up to len(p) bytes of PCM out of the decoder.
func (d *Decoder) Read(p []byte) int { return d.out.Read(p, 0) }

// Available returns the number of PCM bytes ready to be read.
func (d *Decoder) Available() int { return d.out.Available() }
