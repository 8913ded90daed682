// SPDX-License-Identifier: EPL-2.0

package player

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ik5/duckpipe/pipeline"
	"github.com/ik5/duckpipe/source"
	"github.com/ik5/duckpipe/task"
)

type requestKind int

const (
	reqPlayMedia requestKind = iota
	reqAnnounce
	reqPause
	reqResume
	reqToggle
	reqStopMedia
	reqStopAnnouncement
	reqDuck
	reqSetVolume
	reqVolumeUp
	reqVolumeDown
	reqMute
	reqUnmute
	reqWait
)

type request struct {
	kind   requestKind
	source source.Descriptor
	value  float64
	fade   time.Duration
	done   chan struct{}
}

// controller is the state owned by the loop goroutine.
type controller struct {
	media        Stream
	announcement Stream
	paused       bool
	err          error

	waiters []chan struct{}
	// drainedTicks counts consecutive ticks with nothing buffered
	drainedTicks int
}

// loop runs the controller: it serves requests as they arrive and polls
// every event queue once per tick.
func (p *Player) loop(ctx context.Context) error {
	c := &controller{}

	p.mixerTask.Send(ctx, task.Start(uuid.New()))
	p.speakerTask.Send(ctx, task.Start(uuid.New()))

	ticker := time.NewTicker(p.opts.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-p.requests:
			p.serve(ctx, c, r)
		case <-ticker.C:
		}

		for drained := false; !drained; {
			select {
			case r := <-p.requests:
				p.serve(ctx, c, r)
			default:
				drained = true
			}
		}

		p.poll(ctx, c)
		p.publish(c)
	}
}

func (p *Player) serve(ctx context.Context, c *controller, r request) {
	switch r.kind {
	case reqPlayMedia:
		if c.paused {
			p.resume(ctx, c)
		}
		c.media = p.start(ctx, p.media, r.source)
	case reqAnnounce:
		c.announcement = p.start(ctx, p.announcement, r.source)
	case reqPause:
		if c.media.Active && !c.paused {
			p.log.Debug("pausing media")
			p.mixerTask.Send(ctx, task.Command{Type: task.CommandPauseMedia})
			c.paused = true
		}
	case reqResume:
		if c.paused {
			p.resume(ctx, c)
		}
	case reqToggle:
		if c.paused {
			p.resume(ctx, c)
		} else {
			p.serve(ctx, c, request{kind: reqPause})
		}
	case reqStopMedia:
		p.media.Stop(ctx)
		if c.paused {
			p.resume(ctx, c)
		}
	case reqStopAnnouncement:
		p.announcement.Stop(ctx)
	case reqDuck:
		p.duck(ctx, r.value, r.fade)
	case reqSetVolume:
		p.volume.Set(r.value)
		p.volume.Unmute()
	case reqVolumeUp:
		p.volume.Add(p.opts.VolumeStep)
	case reqVolumeDown:
		p.volume.Add(-p.opts.VolumeStep)
	case reqMute:
		p.volume.Mute()
	case reqUnmute:
		p.volume.Unmute()
	case reqWait:
		c.waiters = append(c.waiters, r.done)
	}
}

func (p *Player) start(ctx context.Context, pl *pipeline.Pipeline, d source.Descriptor) Stream {
	id, err := pl.Start(ctx, d)
	if err != nil {
		return Stream{}
	}
	p.log.Info("starting", "pipeline", pl.Name(), "source", d, "session", id)

	return Stream{Session: id, Active: true, Source: d.String()}
}

func (p *Player) resume(ctx context.Context, c *controller) {
	p.log.Debug("resuming media")
	p.mixerTask.Send(ctx, task.Command{Type: task.CommandResumeMedia})
	c.paused = false
}

func (p *Player) duck(ctx context.Context, ratio float64, fade time.Duration) {
	p.log.Debug("ducking", "ratio", ratio, "fade", fade)
	p.mixerTask.Send(ctx, task.Duck(ratio, p.fadeSamples(fade)))
}

// poll drains every event queue without blocking.
func (p *Player) poll(ctx context.Context, c *controller) {
	for {
		select {
		case ev := <-p.media.Events():
			p.pipelineEvent(ctx, c, &c.media, ev, false)
		case ev := <-p.announcement.Events():
			p.pipelineEvent(ctx, c, &c.announcement, ev, true)
		case ev := <-p.mixerTask.Events():
			p.stageEvent(c, ev)
		case ev := <-p.speakerTask.Events():
			p.stageEvent(c, ev)
		default:
			return
		}
	}
}

func (p *Player) pipelineEvent(ctx context.Context, c *controller, s *Stream, ev task.Event, announcement bool) {
	if ev.Session != s.Session {
		// a replaced session winding down
		if ev.Type == task.EventWarning {
			p.log.Debug("stale warning", "event", ev)
		}
		return
	}

	switch ev.Type {
	case task.EventStarted:
		s.Container, s.Info = ev.Container, ev.Info
		p.log.Info("started", "event", ev)
		if announcement && p.opts.AutoDuck {
			p.duck(ctx, p.duckRatio, p.opts.DuckFade)
		}
	case task.EventStopped:
		s.Active = false
		p.log.Info("stopped", "pipeline", ev.Stage, "session", ev.Session)
		if announcement && p.opts.AutoDuck {
			p.duck(ctx, 1, p.opts.DuckFade)
		}
		if !announcement && c.paused {
			p.resume(ctx, c)
		}
	case task.EventWarning:
		if task.IsTerminal(ev.Err) {
			c.err = ev.Err
		}
	}
}

func (p *Player) stageEvent(c *controller, ev task.Event) {
	switch ev.Type {
	case task.EventWarning:
		if task.IsTerminal(ev.Err) {
			p.log.Error("stage failed", "stage", ev.Stage, "err", ev.Err)
			c.err = ev.Err
		}
	case task.EventStopped:
		p.log.Warn("stage stopped", "stage", ev.Stage)
	}
}

// publish stores a new snapshot when anything changed and releases
// drain waiters.
func (p *Player) publish(c *controller) {
	next := &Status{
		State:        stateOf(c.media, c.announcement, c.paused),
		Media:        c.media,
		Announcement: c.announcement,
		Paused:       c.paused,
		Volume:       p.volume.Level(),
		Muted:        p.volume.Muted(),
		Buffered:     p.mixer.Media().Available() + p.mixer.Announcement().Available() + p.mixer.Available(),
		Err:          c.err,
	}

	if next.Drained() {
		c.drainedTicks++
	} else {
		c.drainedTicks = 0
	}
	// the mixer may hold a chunk between its input and output for one step
	if c.drainedTicks >= 2 {
		for _, w := range c.waiters {
			close(w)
		}
		c.waiters = nil
	}

	if *next == *p.status.Load() {
		return
	}
	p.status.Store(next)

	p.subMu.Lock()
	defer p.subMu.Unlock()
	for ch := range p.subs {
		select {
		case ch <- *next:
		default:
		}
	}
}
