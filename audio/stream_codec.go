// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ik5/duckpipe/internal/pcm"
)

const (
	defaultFeedLimit = 16 * 1024
	defaultPCMLimit  = 16 * 1024
	pullSamples      = 2048
)

// StreamCodec adapts a pull-style Decoder to the push-style Codec contract.
//
// The Decoder runs on its own goroutine and reads from an internal feed
// that Decode fills. Decoded PCM is parked in a bounded buffer until Decode
// hands it out, so Decode itself never blocks.
type StreamCodec struct {
	dec Decoder

	mu   sync.Mutex
	cond *sync.Cond

	feed      []byte
	feedLimit int
	eoi       bool

	pcm      []byte
	pcmLimit int

	info    StreamInfo
	hasInfo bool

	started bool
	done    bool
	closed  bool
	err     error
	exited  chan struct{}
}

// NewStreamCodec wraps dec. The goroutine starts on the first Decode call.
func NewStreamCodec(dec Decoder) *StreamCodec {
	c := &StreamCodec{
		dec:       dec,
		feedLimit: defaultFeedLimit,
		pcmLimit:  defaultPCMLimit,
		exited:    make(chan struct{}),
	}
	c.cond = sync.NewCond(&c.mu)

	return c
}

func (c *StreamCodec) Decode(in, out []byte, endOfInput bool) (int, int, DecodeStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, 0, DecodeFatal, ErrCodecClosed
	}
	if !c.started {
		c.started = true
		go c.run()
	}

	consumed := 0
	if !c.eoi {
		consumed = min(len(in), c.feedLimit-len(c.feed))
		c.feed = append(c.feed, in[:consumed]...)
		if endOfInput && consumed == len(in) {
			c.eoi = true
		}
	}

	// whole samples only
	produced := copy(out[:len(out)&^1], c.pcm)
	produced &^= 1
	c.pcm = c.pcm[:copy(c.pcm, c.pcm[produced:])]

	if consumed > 0 || produced > 0 {
		c.cond.Broadcast()
	}

	switch {
	case produced > 0 || consumed > 0:
		return consumed, produced, DecodeMore, nil
	case c.err != nil && len(c.pcm) == 0:
		return consumed, produced, DecodeFatal, c.err
	case c.done && len(c.pcm) == 0:
		return consumed, produced, DecodeEndOfStream, nil
	}

	return consumed, produced, DecodeIdle, nil
}

func (c *StreamCodec) StreamInfo() (StreamInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.info, c.hasInfo
}

// Close stops the decoding goroutine and waits for it to exit.
func (c *StreamCodec) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.cond.Broadcast()
	c.mu.Unlock()

	if started {
		<-c.exited
	}

	return nil
}

func (c *StreamCodec) run() {
	defer close(c.exited)

	src, err := c.dec.Decode(feedReader{c})
	if err != nil {
		c.finish(fmt.Errorf("%w: %w", ErrUnsupportedFormat, err))
		return
	}
	defer src.Close()

	info := src.Info()
	if err := info.Validate(); err != nil {
		c.finish(err)
		return
	}

	c.mu.Lock()
	c.info = info
	c.hasInfo = true
	c.mu.Unlock()

	samples := make([]int16, pullSamples-pullSamples%info.Channels)
	buf := make([]byte, len(samples)*pcm.BytesPerSample)

	for {
		n, err := src.ReadPCM(samples)
		if n > 0 {
			pcm.Encode(buf, samples[:n])
			if !c.park(buf[:n*pcm.BytesPerSample]) {
				return
			}
		}
		if errors.Is(err, io.EOF) {
			c.finish(nil)
			return
		}
		if errors.Is(err, ErrCodecClosed) {
			return
		}
		if err != nil {
			c.finish(err)
			return
		}
	}
}

// park appends decoded bytes, waiting while the PCM buffer is full. It
// returns false once the codec is closed.
func (c *StreamCodec) park(b []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.pcm) >= c.pcmLimit && !c.closed {
		c.cond.Wait()
	}
	if c.closed {
		return false
	}

	c.pcm = append(c.pcm, b...)
	return true
}

func (c *StreamCodec) finish(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done = true
	if !c.closed {
		c.err = err
	}
}

// feedReader is the io.Reader handed to the wrapped Decoder.
type feedReader struct {
	c *StreamCodec
}

func (r feedReader) Read(p []byte) (int, error) {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()

	for len(c.feed) == 0 && !c.eoi && !c.closed {
		c.cond.Wait()
	}
	if c.closed {
		return 0, ErrCodecClosed
	}
	if len(c.feed) == 0 {
		return 0, io.EOF
	}

	n := copy(p, c.feed)
	c.feed = c.feed[:copy(c.feed, c.feed[n:])]
	c.cond.Broadcast()

	return n, nil
}
