// SPDX-License-Identifier: EPL-2.0

package output

import (
	"sync"
	"time"

	"github.com/ik5/duckpipe/audio"
)

// DefaultLead is how far ahead of the wall clock a Paced sink accepts data.
const DefaultLead = 100 * time.Millisecond

// Paced limits a sink to the rate at which a real device would consume the
// stream, so file and capture outputs mix announcements and media in real
// time.
type Paced struct {
	sink Sink
	now  func() time.Time

	mu       sync.Mutex
	rate     float64 // bytes per second
	lead     int
	frame    int
	started  time.Time
	written  int64
	haveTime bool
}

// NewPaced wraps sink. now may be nil to use time.Now; lead is the amount
// of audio accepted ahead of the clock, DefaultLead when zero.
func NewPaced(sink Sink, info audio.StreamInfo, lead time.Duration, now func() time.Time) *Paced {
	if now == nil {
		now = time.Now
	}
	if lead <= 0 {
		lead = DefaultLead
	}

	frame := max(info.BytesPerFrame(), 1)
	rate := float64(info.SampleRate * frame)

	return &Paced{
		sink:  sink,
		now:   now,
		rate:  rate,
		frame: frame,
		lead:  int(lead.Seconds() * rate),
	}
}

// budget returns how many bytes the clock allows right now.
func (p *Paced) budget() int {
	if !p.haveTime {
		p.started = p.now()
		p.haveTime = true
	}

	due := int64(p.now().Sub(p.started).Seconds()*p.rate) + int64(p.lead)
	n := int(max(due-p.written, 0))

	return n - n%p.frame
}

func (p *Paced) FreeBytes() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return min(p.budget(), p.sink.FreeBytes())
}

func (p *Paced) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n, err := p.sink.Write(b[:min(len(b), p.budget())])
	p.written += int64(n)

	return n, err
}
