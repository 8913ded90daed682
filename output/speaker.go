// SPDX-License-Identifier: EPL-2.0

package output

import (
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
	"github.com/ik5/duckpipe/task"
)

// SpeakerName is the stage name used in events and errors.
const SpeakerName = "speaker"

// DefaultChunkBytes is the most a Speaker moves per step.
const DefaultChunkBytes = 4096

// Feed is the stream a Speaker plays, normally the mixer output.
type Feed interface {
	Read(p []byte) int
	Available() int
}

// Speaker moves PCM from a Feed into a Sink, applying software volume on
// the way. A sink that accepts less than it advertised yields a WARNING;
// the remainder is written on the next step.
type Speaker struct {
	feed  Feed
	sink  Sink
	vol   *Volume
	info  audio.StreamInfo
	chunk int

	raw       []byte
	samples   []int16
	pending   []byte
	announced bool
}

// NewSpeaker returns a Speaker playing feed in format info. A nil volume
// plays at unity gain.
func NewSpeaker(feed Feed, sink Sink, info audio.StreamInfo, vol *Volume, chunk int) *Speaker {
	if vol == nil {
		vol = NewVolume(1)
	}
	if chunk <= 0 {
		chunk = DefaultChunkBytes
	}
	frame := max(info.BytesPerFrame(), 1)

	return &Speaker{
		feed:  feed,
		sink:  sink,
		vol:   vol,
		info:  info,
		chunk: max(chunk-chunk%frame, frame),
	}
}

func (s *Speaker) Volume() *Volume { return s.vol }

func (s *Speaker) Start(task.Command) error {
	if s.raw == nil {
		s.raw = make([]byte, s.chunk)
		s.samples = make([]int16, s.chunk/pcm.BytesPerSample)
	}

	return nil
}

func (s *Speaker) Step(draining bool) task.Result {
	res := task.Result{Status: task.Idle}
	if !s.announced {
		s.announced = true
		res.Announce = true
		res.Info = s.info
		res.HasInfo = true
	}

	if len(s.pending) == 0 {
		n := min(s.chunk, s.feed.Available(), s.sink.FreeBytes())
		n -= n % max(s.info.BytesPerFrame(), 1)
		if n == 0 {
			if draining && s.feed.Available() == 0 {
				res.Status = task.Finished
			}
			return res
		}

		n = s.feed.Read(s.raw[:n])
		count := pcm.Decode(s.samples, s.raw[:n])
		s.vol.Apply(s.samples[:count])
		pcm.Encode(s.raw, s.samples[:count])
		s.pending = s.raw[:n]
	}

	want := len(s.pending)
	n, err := s.sink.Write(s.pending)
	s.pending = s.pending[n:]
	res.Bytes = n

	switch {
	case err != nil:
		res.Status = task.Failed
		res.Err = task.Wrap(task.ErrIO, SpeakerName, "write", err)
	case n < want:
		res.Status = task.Warn
		res.Err = task.Wrap(task.ErrOverflow, SpeakerName, "write", nil)
	default:
		res.Status = task.Worked
	}

	return res
}

func (s *Speaker) Stop() {
	s.pending = nil
	s.announced = false
}
