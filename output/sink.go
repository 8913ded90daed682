// SPDX-License-Identifier: EPL-2.0

package output

import (
	"fmt"
	"io"
	"sync"

	"github.com/ik5/duckpipe/audio"
	wavfmt "github.com/ik5/duckpipe/formats/wav"
	"github.com/ik5/duckpipe/internal/pcm"
)

// DefaultRawBytes is how much a Raw sink accepts per write.
const DefaultRawBytes = 4096

// Sink is the audio output device. Write may accept fewer bytes than
// offered; FreeBytes reports how many the next Write will take.
type Sink interface {
	Write(p []byte) (int, error)
	FreeBytes() int
}

// Raw writes s16le PCM to an io.Writer, such as stdout or a pipe.
type Raw struct {
	w     io.Writer
	limit int
}

// NewRaw returns a Raw sink accepting up to limit bytes per write.
// A non-positive limit selects DefaultRawBytes.
func NewRaw(w io.Writer, limit int) *Raw {
	if limit <= 0 {
		limit = DefaultRawBytes
	}

	return &Raw{w: w, limit: limit}
}

func (r *Raw) Write(p []byte) (int, error) {
	n, err := r.w.Write(p[:min(len(p), r.limit)])
	if err != nil {
		return n, fmt.Errorf("%w", err)
	}

	return n, nil
}

func (r *Raw) FreeBytes() int { return r.limit }

// Capture keeps everything written to it in memory. It is safe for
// concurrent use.
type Capture struct {
	mu    sync.Mutex
	data  []byte
	limit int
}

// NewCapture returns a Capture holding at most limit bytes; zero means
// unbounded.
func NewCapture(limit int) *Capture {
	return &Capture{limit: limit}
}

func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(p)
	if c.limit > 0 {
		n = min(n, c.limit-len(c.data))
	}
	c.data = append(c.data, p[:n]...)

	return n, nil
}

func (c *Capture) FreeBytes() int {
	if c.limit == 0 {
		return DefaultRawBytes
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.limit - len(c.data)
}

// Len returns the number of bytes captured so far.
func (c *Capture) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.data)
}

// Bytes returns a copy of the captured stream.
func (c *Capture) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]byte(nil), c.data...)
}

// Samples returns the captured stream as samples. A trailing odd byte is
// ignored.
func (c *Capture) Samples() []int16 {
	b := c.Bytes()
	out := make([]int16, len(b)/pcm.BytesPerSample)
	pcm.Decode(out, b)

	return out
}

// Frames returns the number of whole frames captured in format info.
func (c *Capture) Frames(info audio.StreamInfo) int {
	if info.BytesPerFrame() == 0 {
		return 0
	}

	return c.Len() / info.BytesPerFrame()
}

// NewWAVStream writes a WAV header with an open-ended data chunk to w and
// returns a Raw sink for the samples that follow. Use it where w cannot
// seek, such as stdout.
func NewWAVStream(w io.Writer, info audio.StreamInfo) (*Raw, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if err := wavfmt.WriteHeader(w, info, wavfmt.UnknownDataSize); err != nil {
		return nil, err
	}

	return NewRaw(w, DefaultRawBytes), nil
}
