// SPDX-License-Identifier: EPL-2.0

package ringbuf

import (
	"sync"
	"time"
)

// RingBuffer is a fixed-capacity FIFO byte queue shared by exactly one
// writer and one reader.
//
// Writes never replace unread data: a write that does not fit is cut short
// and the writer is expected to retry on its next cycle. Both Read and Write
// accept a timeout; zero means non-blocking.
//
// Index updates happen under a short internal lock so that Reset may be
// issued by either side. No lock is held while waiting.
type RingBuffer struct {
	mu   sync.Mutex
	buf  []byte
	head int // next byte to read
	size int // unread bytes

	readable chan struct{}
	writable chan struct{}
}

// New returns an empty buffer able to hold capacity bytes.
func New(capacity int) (*RingBuffer, error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	return &RingBuffer{
		buf:      make([]byte, capacity),
		readable: make(chan struct{}, 1),
		writable: make(chan struct{}, 1),
	}, nil
}

// Cap returns the fixed capacity.
func (rb *RingBuffer) Cap() int { return len(rb.buf) }

// Available returns the number of unread bytes.
func (rb *RingBuffer) Available() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return rb.size
}

// Free returns the number of bytes that can be written without blocking.
func (rb *RingBuffer) Free() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	return len(rb.buf) - rb.size
}

// Write copies as much of p as fits, waiting up to timeout for the reader
// to make room for the rest. It returns the number of bytes written.
func (rb *RingBuffer) Write(p []byte, timeout time.Duration) int {
	written := rb.write(p)
	if written == len(p) || timeout <= 0 {
		return written
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for written < len(p) {
		select {
		case <-rb.writable:
		case <-timer.C:
			return written + rb.write(p[written:])
		}
		written += rb.write(p[written:])
	}

	return written
}

// Read copies up to len(p) unread bytes into p, waiting up to timeout for
// the writer when the buffer is empty. It returns the number of bytes read.
func (rb *RingBuffer) Read(p []byte, timeout time.Duration) int {
	n := rb.read(p)
	if n > 0 || len(p) == 0 || timeout <= 0 {
		return n
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-rb.readable:
		case <-timer.C:
			return rb.read(p)
		}
		if n = rb.read(p); n > 0 {
			return n
		}
	}
}

// Reset discards all unread bytes.
func (rb *RingBuffer) Reset() {
	rb.mu.Lock()
	rb.head = 0
	rb.size = 0
	rb.mu.Unlock()

	notify(rb.writable)
}

func (rb *RingBuffer) write(p []byte) int {
	rb.mu.Lock()
	n := min(len(p), len(rb.buf)-rb.size)
	if n == 0 {
		rb.mu.Unlock()
		return 0
	}

	tail := (rb.head + rb.size) % len(rb.buf)
	c := copy(rb.buf[tail:], p[:n])
	copy(rb.buf, p[c:n])
	rb.size += n
	rb.mu.Unlock()

	notify(rb.readable)
	return n
}

func (rb *RingBuffer) read(p []byte) int {
	rb.mu.Lock()
	n := min(len(p), rb.size)
	if n == 0 {
		rb.mu.Unlock()
		return 0
	}

	c := copy(p[:n], rb.buf[rb.head:])
	copy(p[c:n], rb.buf)
	rb.head = (rb.head + n) % len(rb.buf)
	rb.size -= n
	if rb.size == 0 {
		rb.head = 0
	}
	rb.mu.Unlock()

	notify(rb.writable)
	return n
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
