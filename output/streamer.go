// SPDX-License-Identifier: EPL-2.0

package output

import (
	"github.com/gopxl/beep/v2"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
)

// Streamer plays a Feed through beep. Gaps in the feed are filled with
// silence, so the streamer never drains; stop it by removing it from the
// speaker.
type Streamer struct {
	feed Feed
	info audio.StreamInfo
	vol  *Volume

	raw     []byte
	samples []int16
}

// NewStreamer returns a beep.Streamer over feed in format info. vol may be
// nil.
func NewStreamer(feed Feed, info audio.StreamInfo, vol *Volume) *Streamer {
	if vol == nil {
		vol = NewVolume(1)
	}

	return &Streamer{feed: feed, info: info, vol: vol}
}

// Format describes the stream for beep.
func (s *Streamer) Format() beep.Format {
	return beep.Format{
		SampleRate:  beep.SampleRate(s.info.SampleRate),
		NumChannels: 2,
		Precision:   pcm.BytesPerSample,
	}
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	ch := max(s.info.Channels, 1)
	frame := ch * pcm.BytesPerSample

	want := len(samples) * frame
	if cap(s.raw) < want {
		s.raw = make([]byte, want)
		s.samples = make([]int16, want/pcm.BytesPerSample)
	}

	n := s.feed.Read(s.raw[:min(want, s.feed.Available())])
	n -= n % frame
	count := pcm.Decode(s.samples, s.raw[:n])
	s.vol.Apply(s.samples[:count])

	frames := count / ch
	for i := range frames {
		l := float64(s.samples[i*ch]) / 32768
		r := l
		if ch > 1 {
			r = float64(s.samples[i*ch+1]) / 32768
		}
		samples[i] = [2]float64{l, r}
	}
	clear(samples[frames:])

	return len(samples), true
}

func (s *Streamer) Err() error { return nil }
