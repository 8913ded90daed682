// SPDX-License-Identifier: EPL-2.0

package stage

import (
	"sync"

	"github.com/ik5/duckpipe/ringbuf"
)

// inlet is the input side of a worker. Outside a session it refuses writes,
// so bytes still in flight when a session ends never leak into the next.
type inlet struct {
	mu   sync.Mutex
	open bool
	rb   *ringbuf.Lazy
}

func newInlet(capacity int) *inlet {
	return &inlet{rb: ringbuf.NewLazy(capacity)}
}

func (i *inlet) ensure() error { return i.rb.Ensure() }

func (i *inlet) Write(p []byte) int {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return 0
	}

	return i.rb.Write(p, 0)
}

func (i *inlet) Free() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.open {
		return 0
	}

	return i.rb.Free()
}

func (i *inlet) Read(p []byte) int { return i.rb.Read(p, 0) }

func (i *inlet) Available() int { return i.rb.Available() }

func (i *inlet) Open() {
	i.mu.Lock()
	i.open = true
	i.mu.Unlock()
}

// Close refuses further writes and drops everything buffered.
func (i *inlet) Close() {
	i.mu.Lock()
	i.open = false
	i.rb.Reset()
	i.mu.Unlock()
}
