// SPDX-License-Identifier: EPL-2.0

// Package ringbuf provides the fixed-capacity byte queue used to hand audio
// between pipeline stages.
//
// Each RingBuffer has one writer and one reader. The writer never
// overwrites unread bytes; when the buffer is full a Write is cut short and
// the caller tries again on its next cycle. This short write is the
// backpressure signal that propagates upstream through the pipeline.
//
//	rb, _ := ringbuf.New(32768)
//	n := rb.Write(chunk, 0)          // non-blocking, may be short
//	m := rb.Read(out, 10*time.Millisecond)
//
// At every observation Available()+Free() == Cap().
package ringbuf
