// SPDX-License-Identifier: EPL-2.0

package ringbuf

import (
	"sync/atomic"
	"time"
)

// Lazy is a RingBuffer allocated on first use. Until Ensure succeeds it
// behaves like a buffer of zero capacity: nothing can be written and
// nothing is available.
//
// A stage keeps its buffers as Lazy values so that memory is only taken
// when the stage is started for the first time, and kept across sessions.
type Lazy struct {
	size int
	rb   atomic.Pointer[RingBuffer]
}

// NewLazy returns an unallocated buffer of the given capacity.
func NewLazy(capacity int) *Lazy {
	return &Lazy{size: capacity}
}

// Ensure allocates the buffer if that has not happened yet.
func (l *Lazy) Ensure() error {
	if l.rb.Load() != nil {
		return nil
	}

	rb, err := New(l.size)
	if err != nil {
		return err
	}
	l.rb.CompareAndSwap(nil, rb)

	return nil
}

// Allocated reports whether Ensure has succeeded.
func (l *Lazy) Allocated() bool { return l.rb.Load() != nil }

// Cap returns the configured capacity, allocated or not.
func (l *Lazy) Cap() int { return l.size }

func (l *Lazy) Available() int {
	if rb := l.rb.Load(); rb != nil {
		return rb.Available()
	}

	return 0
}

func (l *Lazy) Free() int {
	if rb := l.rb.Load(); rb != nil {
		return rb.Free()
	}

	return 0
}

func (l *Lazy) Write(p []byte, timeout time.Duration) int {
	if rb := l.rb.Load(); rb != nil {
		return rb.Write(p, timeout)
	}

	return 0
}

func (l *Lazy) Read(p []byte, timeout time.Duration) int {
	if rb := l.rb.Load(); rb != nil {
		return rb.Read(p, timeout)
	}

	return 0
}

func (l *Lazy) Reset() {
	if rb := l.rb.Load(); rb != nil {
		rb.Reset()
	}
}
