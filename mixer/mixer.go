// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
	"github.com/ik5/duckpipe/ringbuf"
	"github.com/ik5/duckpipe/task"
)

// Name is the stage name used in events and errors.
const Name = "mixer"

const (
	DefaultInputBytes  = 32768
	DefaultOutputBytes = 8192
	DefaultChunkBytes  = 4096
)

// Options configures a Mixer. Zero sizes select the defaults.
type Options struct {
	SampleRate  int
	Channels    int
	InputBytes  int
	OutputBytes int
	ChunkBytes  int
}

// Input is one of the mixer's two input buffers.
type Input struct {
	rb *ringbuf.Lazy
}

// Write accepts up to Free bytes of PCM in the mixer's output format.
func (in *Input) Write(p []byte) int { return in.rb.Write(p, 0) }

func (in *Input) Free() int { return in.rb.Free() }

func (in *Input) Available() int { return in.rb.Available() }

// Mixer combines a media and an announcement stream into one output
// stream. Media is attenuated by the ducking ratio and, where the sum
// would clip, by one extra factor per chunk; announcements are never
// attenuated.
type Mixer struct {
	media        *Input
	announcement *Input
	out          *ringbuf.Lazy

	info       audio.StreamInfo
	chunk      int
	frameBytes int

	mediaBuf []int16
	annBuf   []int16
	raw      []byte

	duck         ducker
	mediaEnabled bool
	announced    bool
}

func New(opts Options) *Mixer {
	if opts.InputBytes <= 0 {
		opts.InputBytes = DefaultInputBytes
	}
	if opts.OutputBytes <= 0 {
		opts.OutputBytes = DefaultOutputBytes
	}
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = DefaultChunkBytes
	}
	if opts.Channels <= 0 {
		opts.Channels = 2
	}

	info := audio.StreamInfo{Channels: opts.Channels, BitsPerSample: 16, SampleRate: opts.SampleRate}
	frame := info.BytesPerFrame()

	return &Mixer{
		media:        &Input{rb: ringbuf.NewLazy(opts.InputBytes)},
		announcement: &Input{rb: ringbuf.NewLazy(opts.InputBytes)},
		out:          ringbuf.NewLazy(opts.OutputBytes),
		info:         info,
		chunk:        max(opts.ChunkBytes-opts.ChunkBytes%frame, frame),
		frameBytes:   frame,
		duck:         newDucker(),
		mediaEnabled: true,
	}
}

// Media is the input of the media pipeline.
func (m *Mixer) Media() *Input { return m.media }

// Announcement is the input of the announcement pipeline.
func (m *Mixer) Announcement() *Input { return m.announcement }

// Output describes the mixed stream.
func (m *Mixer) Output() audio.StreamInfo { return m.info }

// Read moves up to len(p) bytes of mixed PCM out of the mixer.
func (m *Mixer) Read(p []byte) int { return m.out.Read(p, 0) }

// Available returns the number of mixed bytes ready to be read.
func (m *Mixer) Available() int { return m.out.Available() }

func (m *Mixer) Start(task.Command) error {
	for _, rb := range []*ringbuf.Lazy{m.media.rb, m.announcement.rb, m.out} {
		if err := rb.Ensure(); err != nil {
			return task.Wrap(task.ErrAllocation, Name, "start", err)
		}
	}
	if m.raw == nil {
		m.mediaBuf = make([]int16, m.chunk/pcm.BytesPerSample)
		m.annBuf = make([]int16, m.chunk/pcm.BytesPerSample)
		m.raw = make([]byte, m.chunk)
	}

	m.duck = newDucker()
	m.mediaEnabled = true

	return nil
}

func (m *Mixer) Handle(cmd task.Command) {
	switch cmd.Type {
	case task.CommandDuck:
		m.duck.set(cmd.Ratio, cmd.FadeSamples)
	case task.CommandPauseMedia:
		m.mediaEnabled = false
	case task.CommandResumeMedia:
		m.mediaEnabled = true
	case task.CommandClearMedia:
		m.media.rb.Reset()
	case task.CommandClearAnnouncement:
		m.announcement.rb.Reset()
	}
}

func (m *Mixer) Step(draining bool) task.Result {
	res := task.Result{Status: task.Idle}
	if !m.announced {
		m.announced = true
		res.Announce = true
		res.Info = m.info
		res.HasInfo = true
	}

	mediaAvail := 0
	if m.mediaEnabled {
		mediaAvail = m.media.Available()
	}
	annAvail := m.announcement.Available()
	outFree := m.out.Free()

	if mediaAvail < m.frameBytes && annAvail < m.frameBytes {
		if draining && m.out.Available() == 0 {
			res.Status = task.Finished
		}
		return res
	}

	n := min(outFree, m.chunk)
	if mediaAvail >= m.frameBytes {
		n = min(n, mediaAvail)
	}
	if annAvail >= m.frameBytes {
		n = min(n, annAvail)
	}
	n -= n % m.frameBytes
	if n == 0 {
		return res
	}
	samples := n / pcm.BytesPerSample

	var media, ann []int16
	if mediaAvail >= m.frameBytes {
		m.media.rb.Read(m.raw[:n], 0)
		media = m.mediaBuf[:pcm.Decode(m.mediaBuf, m.raw[:n])]
		m.duck.apply(media)
	}
	if annAvail >= m.frameBytes {
		m.announcement.rb.Read(m.raw[:n], 0)
		ann = m.annBuf[:pcm.Decode(m.annBuf, m.raw[:n])]
	}

	switch {
	case media != nil && ann != nil:
		if f := clipFactor(media, ann); f < 1 {
			pcm.Scale(media, f)
		}
		for i := range media {
			media[i] = saturate(int32(media[i]) + int32(ann[i]))
		}
	case ann != nil:
		media = ann
	}

	pcm.Encode(m.raw, media[:samples])
	res.Bytes = m.out.Write(m.raw[:n], 0)
	res.Status = task.Worked

	return res
}

func (m *Mixer) Stop() {
	m.media.rb.Reset()
	m.announcement.rb.Reset()
	m.out.Reset()
	m.announced = false
}

// Ratio returns the media ratio that applies once any transition ends.
// It must only be called from the goroutine running the mixer.
func (m *Mixer) Ratio() float64 { return m.duck.current }

// clipFactor returns the largest factor for media that keeps every
// media+announcement sum inside the 16-bit range, or 1 if none clips.
func clipFactor(media, ann []int16) float64 {
	f := 1.0
	for i, v := range media {
		sum := int32(v) + int32(ann[i])

		var limit int32
		switch {
		case sum > math.MaxInt16:
			limit = math.MaxInt16
		case sum < math.MinInt16:
			limit = math.MinInt16
		default:
			continue
		}

		// v is non-zero and has the sign of the overflow
		f = min(f, float64(limit-int32(ann[i]))/float64(v))
	}

	return max(f, 0)
}

func saturate(v int32) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	}

	return int16(v)
}
