// SPDX-License-Identifier: EPL-2.0

package stage

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/ringbuf"
	"github.com/ik5/duckpipe/source"
	"github.com/ik5/duckpipe/task"
)

// ReaderName is the stage name used in events and errors.
const ReaderName = "reader"

// Reader pulls raw container bytes from a source into its output buffer.
// It announces the detected container as soon as the source is open and
// finishes once the source is exhausted and its output has been drained.
//
// Opening and pulling use a per-session context that Interrupt cancels, so
// a stalled network source never delays a stop.
type Reader struct {
	opener *source.Opener
	out    *ringbuf.Lazy
	chunk  int

	buf       []byte
	pending   []byte
	src       source.Source
	container audio.ContainerType
	eof       bool
	announced bool

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewReader returns a Reader opening descriptors with opener. A nil opener
// uses the zero source.Opener.
func NewReader(opener *source.Opener, b Buffers) *Reader {
	if opener == nil {
		opener = &source.Opener{}
	}
	b = b.withDefaults()

	return &Reader{
		opener: opener,
		out:    ringbuf.NewLazy(b.Raw),
		chunk:  b.Chunk,
	}
}

func (r *Reader) Start(cmd task.Command) error {
	if err := r.out.Ensure(); err != nil {
		return task.Wrap(task.ErrAllocation, ReaderName, "start", err)
	}
	if r.buf == nil {
		r.buf = make([]byte, r.chunk)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.ctx, r.cancel = ctx, cancel
	r.mu.Unlock()

	src, ct, err := r.opener.Open(ctx, cmd.Source)
	if err != nil {
		if ctx.Err() != nil {
			// interrupted; Step idles until the stop is taken
			return nil
		}
		return task.Wrap(task.ErrIO, ReaderName, "open "+cmd.Source.String(), err)
	}
	if ct == audio.ContainerNone {
		src.Close()
		return task.Wrap(task.ErrFormat, ReaderName, "detect container", audio.ErrUnsupportedFormat)
	}

	r.src, r.container = src, ct

	return nil
}

// Interrupt cancels the current session's open or pull.
func (r *Reader) Interrupt() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
}

func (r *Reader) interrupted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ctx != nil && r.ctx.Err() != nil
}

func (r *Reader) Step(draining bool) task.Result {
	res := task.Result{Status: task.Idle}
	if r.src == nil {
		// open was interrupted
		if draining {
			res.Status = task.Finished
		}
		return res
	}
	if !r.announced {
		r.announced = true
		res.Announce = true
		res.Container = r.container
	}

	progressed := false
	if len(r.pending) == 0 && !r.eof && !draining {
		n, err := r.src.Pull(r.buf)
		r.pending = r.buf[:n]
		progressed = n > 0

		switch {
		case errors.Is(err, io.EOF):
			r.eof = true
		case err != nil && r.interrupted():
			r.eof = true
		case err != nil:
			res.Status = task.Failed
			res.Err = task.Wrap(task.ErrIO, ReaderName, "pull", err)
			return res
		}
	}

	if len(r.pending) > 0 {
		n := r.out.Write(r.pending, 0)
		r.pending = r.pending[n:]
		res.Bytes = n
		progressed = progressed || n > 0
	}

	switch {
	case (r.eof || draining) && len(r.pending) == 0 && r.out.Available() == 0:
		res.Status = task.Finished
	case progressed:
		res.Status = task.Worked
	}

	return res
}

func (r *Reader) Stop() {
	if r.src != nil {
		r.src.Close()
		r.src = nil
	}
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.ctx, r.cancel = nil, nil
	r.mu.Unlock()

	r.out.Reset()
	r.pending = nil
	r.container = audio.ContainerNone
	r.eof = false
	r.announced = false
}

// Read moves up to len(p) raw bytes out of the reader.
func (r *Reader) Read(p []byte) int { return r.out.Read(p, 0) }

// Available returns the number of raw bytes ready to be read.
func (r *Reader) Available() int { return r.out.Available() }
