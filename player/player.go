// SPDX-License-Identifier: EPL-2.0

package player

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/mixer"
	"github.com/ik5/duckpipe/output"
	"github.com/ik5/duckpipe/pipeline"
	"github.com/ik5/duckpipe/source"
	"github.com/ik5/duckpipe/stage"
	"github.com/ik5/duckpipe/task"
)

const (
	DefaultTick       = 10 * time.Millisecond
	DefaultDuckRatio  = 0.3
	DefaultDuckFade   = 50 * time.Millisecond
	DefaultVolumeStep = 0.05

	requestQueue    = 16
	subscriberQueue = 16
)

var (
	ErrNoSink  = errors.New("player: no output sink")
	ErrStopped = errors.New("player: not running")
)

// Options configures a Player. Zero values select defaults.
type Options struct {
	SampleRate int
	Channels   int

	Sink     output.Sink
	Registry *audio.Registry
	Opener   *source.Opener

	Buffers       stage.Buffers
	Mixer         mixer.Options
	TransferBytes int
	SpeakerChunk  int
	Task          task.Options

	// Tick is how often the controller polls its event queues.
	Tick time.Duration

	// AutoDuck ducks media to DuckRatio while an announcement plays. A nil
	// DuckRatio selects DefaultDuckRatio; 0 silences media.
	AutoDuck  bool
	DuckRatio *float64
	DuckFade  time.Duration

	// Volume is the initial level; zero selects 1.
	Volume     float64
	VolumeStep float64
}

// Player is the controller: it owns a media and an announcement pipeline
// feeding one mixer, and a speaker stage playing the mix into a sink.
// All methods are safe for concurrent use; commands are queued to the
// controller loop started by Run.
type Player struct {
	opts      Options
	duckRatio float64
	log       *log.Logger
	info      audio.StreamInfo

	mixer       *mixer.Mixer
	mixerTask   *task.Stage
	speakerTask *task.Stage
	volume      *output.Volume

	media        *pipeline.Pipeline
	announcement *pipeline.Pipeline

	requests chan request
	done     chan struct{}
	status   atomic.Pointer[Status]

	subMu sync.Mutex
	subs  map[chan Status]struct{}
}

// New builds a Player. Run must be called before commands take effect.
func New(opts Options) (*Player, error) {
	if opts.Sink == nil {
		return nil, ErrNoSink
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 16000
	}
	if opts.Channels <= 0 {
		opts.Channels = 2
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	duckRatio := DefaultDuckRatio
	if opts.DuckRatio != nil {
		duckRatio = min(max(*opts.DuckRatio, 0), 1)
	}
	if opts.DuckFade < 0 {
		opts.DuckFade = 0
	}
	if opts.Volume <= 0 {
		opts.Volume = 1
	}
	if opts.VolumeStep <= 0 {
		opts.VolumeStep = DefaultVolumeStep
	}
	if opts.Task.Logger == nil {
		opts.Task.Logger = log.New(io.Discard)
	}

	info := audio.StreamInfo{Channels: opts.Channels, BitsPerSample: 16, SampleRate: opts.SampleRate}
	if err := info.Validate(); err != nil {
		return nil, err
	}

	p := &Player{
		opts:      opts,
		duckRatio: duckRatio,
		log:       opts.Task.Logger.WithPrefix("player"),
		info:      info,
		volume:    output.NewVolume(opts.Volume),
		requests:  make(chan request, requestQueue),
		done:      make(chan struct{}),
		subs:      make(map[chan Status]struct{}),
	}

	mopts := opts.Mixer
	mopts.SampleRate, mopts.Channels = opts.SampleRate, opts.Channels
	p.mixer = mixer.New(mopts)
	p.mixerTask = task.New(p.mixer, p.taskOptions(mixer.Name))

	speaker := output.NewSpeaker(p.mixer, opts.Sink, info, p.volume, opts.SpeakerChunk)
	p.speakerTask = task.New(speaker, p.taskOptions(output.SpeakerName))

	p.media = p.pipeline("media", p.mixer.Media(), task.CommandClearMedia)
	p.announcement = p.pipeline("announcement", p.mixer.Announcement(), task.CommandClearAnnouncement)

	p.status.Store(&Status{Volume: p.volume.Level()})

	return p, nil
}

func (p *Player) taskOptions(name string) task.Options {
	o := p.opts.Task
	o.Name = name
	return o
}

func (p *Player) pipeline(name string, in *mixer.Input, clearCmd task.CommandType) *pipeline.Pipeline {
	return pipeline.New(pipeline.Options{
		Name:          name,
		Target:        in,
		Mixer:         p.mixerTask,
		Clear:         clearCmd,
		Registry:      p.opts.Registry,
		Opener:        p.opts.Opener,
		SampleRate:    p.opts.SampleRate,
		Channels:      p.opts.Channels,
		Buffers:       p.opts.Buffers,
		TransferBytes: p.opts.TransferBytes,
		Task:          p.opts.Task,
	})
}

// Output describes the stream written to the sink.
func (p *Player) Output() audio.StreamInfo { return p.info }

// Status returns the latest snapshot.
func (p *Player) Status() Status { return *p.status.Load() }

// Subscribe returns a channel receiving every new snapshot and a function
// that cancels the subscription. Snapshots are dropped for a subscriber
// that falls behind; Status always has the latest one.
func (p *Player) Subscribe() (<-chan Status, func()) {
	ch := make(chan Status, subscriberQueue)

	p.subMu.Lock()
	p.subs[ch] = struct{}{}
	p.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subMu.Lock()
			delete(p.subs, ch)
			p.subMu.Unlock()
		})
	}
}

// Stats returns the counters of every stage keyed by stage name.
func (p *Player) Stats() map[string]task.Stats {
	stats := map[string]task.Stats{
		p.mixerTask.Name():   p.mixerTask.Stats(),
		p.speakerTask.Name(): p.speakerTask.Stats(),
	}
	for _, pl := range []*pipeline.Pipeline{p.media, p.announcement} {
		for k, v := range pl.Stats() {
			stats[k] = v
		}
	}

	return stats
}

// Run starts every stage and the controller loop and blocks until ctx
// ends.
func (p *Player) Run(ctx context.Context) error {
	defer close(p.done)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.mixerTask.Run(ctx) })
	g.Go(func() error { return p.speakerTask.Run(ctx) })
	g.Go(func() error { return p.media.Run(ctx) })
	g.Go(func() error { return p.announcement.Run(ctx) })
	g.Go(func() error { return p.loop(ctx) })

	return g.Wait()
}

// WaitDrained blocks until nothing is playing and everything buffered
// reached the sink.
func (p *Player) WaitDrained(ctx context.Context) error {
	done := make(chan struct{})
	if err := p.enqueue(ctx, request{kind: reqWait, done: done}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrStopped
	}
}

func (p *Player) PlayMedia(ctx context.Context, d source.Descriptor) error {
	return p.enqueue(ctx, request{kind: reqPlayMedia, source: d})
}

func (p *Player) Announce(ctx context.Context, d source.Descriptor) error {
	return p.enqueue(ctx, request{kind: reqAnnounce, source: d})
}

func (p *Player) Pause(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqPause})
}

func (p *Player) Resume(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqResume})
}

func (p *Player) Toggle(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqToggle})
}

func (p *Player) StopMedia(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqStopMedia})
}

func (p *Player) StopAnnouncement(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqStopAnnouncement})
}

// Duck fades media to ratio over d. Ratio 1 releases the duck.
func (p *Player) Duck(ctx context.Context, ratio float64, d time.Duration) error {
	return p.enqueue(ctx, request{kind: reqDuck, value: ratio, fade: d})
}

// SetVolume sets the level in [0, 1] and unmutes.
func (p *Player) SetVolume(ctx context.Context, level float64) error {
	return p.enqueue(ctx, request{kind: reqSetVolume, value: level})
}

func (p *Player) VolumeUp(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqVolumeUp})
}

func (p *Player) VolumeDown(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqVolumeDown})
}

func (p *Player) Mute(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqMute})
}

func (p *Player) Unmute(ctx context.Context) error {
	return p.enqueue(ctx, request{kind: reqUnmute})
}

func (p *Player) enqueue(ctx context.Context, r request) error {
	select {
	case p.requests <- r:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.done:
		return ErrStopped
	}
}

// fadeSamples converts a fade duration into mixer samples (frames times
// channels).
func (p *Player) fadeSamples(d time.Duration) int {
	return int(d.Seconds() * float64(p.opts.SampleRate*p.opts.Channels))
}
