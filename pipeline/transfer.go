// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ik5/duckpipe/task"
)

// session tracks which stages of the current session are still active.
type session struct {
	id uuid.UUID

	reading    bool
	decoding   bool
	resampling bool

	// graceful is cleared by an immediate stop or a stage failure
	graceful bool
	// stopping halts all transfers after an immediate stop
	stopping bool
}

func (s *session) done() bool {
	return !s.reading && !s.decoding && !s.resampling
}

// run is the transfer task.
func (p *Pipeline) run(ctx context.Context) error {
	var (
		cur     *session
		pending *task.Command
	)

	timer := time.NewTimer(p.poll)
	defer timer.Stop()

	handle := func(cmd task.Command) {
		switch cmd.Type {
		case task.CommandStart:
			if cur == nil {
				cur = p.begin(ctx, cmd)
				return
			}
			p.log.Debug("restarting", "session", cur.id)
			pending = &cmd
			p.stopNow(ctx, cur)
		case task.CommandStop:
			pending = nil
			if cur != nil {
				p.stopNow(ctx, cur)
			}
		case task.CommandStopGracefully:
			if cur != nil && !cur.stopping && cur.reading {
				p.log.Debug("stopping gracefully", "session", cur.id)
				p.readerTask.Send(ctx, task.StopGracefully())
			}
		}
	}

	for {
		for drained := false; !drained; {
			select {
			case cmd := <-p.commands:
				handle(cmd)
			default:
				drained = true
			}
		}

		moved := 0
		if cur != nil && !cur.stopping {
			moved = p.move()
		}

		if cur != nil {
			p.watch(ctx, cur)
			if cur.done() {
				p.finish(ctx, cur)
				cur = nil
				if pending != nil {
					cur = p.begin(ctx, *pending)
					pending = nil
				}
			}
		}

		if ctx.Err() != nil {
			return nil
		}
		if moved > 0 {
			continue
		}

		timer.Reset(p.poll)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		case cmd := <-p.commands:
			timer.Stop()
			handle(cmd)
		}
	}
}

// move shuttles bytes downstream, furthest stage first, never taking more
// than the next buffer can accept.
func (p *Pipeline) move() int {
	buf := p.transfer
	moved := 0

	if p.target != nil {
		n := p.resampler.Read(buf[:min(len(buf), p.target.Free())])
		moved += p.target.Write(buf[:n])
	}

	n := p.decoder.Read(buf[:min(len(buf), p.resampler.Free())])
	moved += p.resampler.Write(buf[:n])

	n = p.reader.Read(buf[:min(len(buf), p.decoder.Free())])
	moved += p.decoder.Write(buf[:n])

	return moved
}

func (p *Pipeline) begin(ctx context.Context, cmd task.Command) *session {
	s := &session{id: cmd.Session, reading: true, graceful: true}
	if s.id == uuid.Nil {
		s.id = uuid.New()
		cmd.Session = s.id
	}

	p.log.Debug("starting", "session", s.id, "source", cmd.Source)
	p.emit(ctx, task.Event{Type: task.EventStarting, Session: s.id})
	p.readerTask.Send(ctx, cmd)

	return s
}

// stopNow stops every active stage without draining.
func (p *Pipeline) stopNow(ctx context.Context, s *session) {
	if s.stopping {
		return
	}
	s.stopping = true
	s.graceful = false

	p.log.Debug("stopping", "session", s.id)
	if s.reading {
		p.readerTask.Send(ctx, task.Stop())
	}
	if s.decoding {
		p.decoderTask.Send(ctx, task.Stop())
	}
	if s.resampling {
		p.resamplerTask.Send(ctx, task.Stop())
	}
}

// watch consumes the stages' events, starting the next stage on each
// announcement and cascading stops downstream.
func (p *Pipeline) watch(ctx context.Context, s *session) {
	for {
		select {
		case ev := <-p.readerTask.Events():
			switch ev.Type {
			case task.EventStarted:
				if s.stopping {
					break
				}
				cmd := task.Start(s.id)
				cmd.Container = ev.Container
				s.decoding = true
				p.decoderTask.Send(ctx, cmd)
			case task.EventStopped:
				s.reading = false
				if s.decoding && s.graceful {
					p.decoderTask.Send(ctx, task.StopGracefully())
				}
			case task.EventWarning:
				p.warn(ctx, s, ev)
			}

		case ev := <-p.decoderTask.Events():
			switch ev.Type {
			case task.EventStarted:
				if s.stopping || !ev.HasInfo {
					break
				}
				cmd := task.Start(s.id)
				cmd.Info = ev.Info
				s.resampling = true
				p.resamplerTask.Send(ctx, cmd)
				p.emit(ctx, task.Event{Type: task.EventStarted, Session: s.id, Container: ev.Container, Info: ev.Info, HasInfo: true})
				p.tryEmit(task.Event{Type: task.EventRunning, Session: s.id})
			case task.EventStopped:
				s.decoding = false
				if s.reading {
					// nothing consumes the reader any more
					p.stopNow(ctx, s)
				} else if s.resampling && s.graceful {
					p.resamplerTask.Send(ctx, task.StopGracefully())
				}
			case task.EventWarning:
				p.warn(ctx, s, ev)
			}

		case ev := <-p.resamplerTask.Events():
			switch ev.Type {
			case task.EventStopped:
				s.resampling = false
				if s.reading || s.decoding {
					p.stopNow(ctx, s)
				}
			case task.EventWarning:
				p.warn(ctx, s, ev)
			}

		default:
			return
		}
	}
}

// warn republishes a stage warning unchanged.
func (p *Pipeline) warn(ctx context.Context, s *session, ev task.Event) {
	if task.IsTerminal(ev.Err) {
		p.log.Error("stage failed", "session", s.id, "stage", ev.Stage, "err", ev.Err)
	} else {
		p.log.Warn("stage warning", "session", s.id, "stage", ev.Stage, "err", ev.Err)
	}
	p.emit(ctx, ev)
}

func (p *Pipeline) finish(ctx context.Context, s *session) {
	p.emit(ctx, task.Event{Type: task.EventStopping, Session: s.id})
	if !s.graceful && p.mixer != nil {
		p.mixer.Send(ctx, task.Command{Type: p.clear})
	}
	p.emit(ctx, task.Event{Type: task.EventStopped, Session: s.id})
	p.tryEmit(task.Event{Type: task.EventIdle, Session: s.id})
	p.log.Debug("stopped", "session", s.id)
}

func (p *Pipeline) emit(ctx context.Context, ev task.Event) {
	if ev.Stage == "" {
		ev.Stage = p.name
	}
	select {
	case p.events <- ev:
	case <-ctx.Done():
	}
}

func (p *Pipeline) tryEmit(ev task.Event) {
	ev.Stage = p.name
	select {
	case p.events <- ev:
	default:
	}
}
