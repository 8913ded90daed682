// SPDX-License-Identifier: EPL-2.0

package task

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ik5/duckpipe/audio"
)

const (
	DefaultPollInterval = 10 * time.Millisecond
	DefaultQueueSize    = 10

	// MaxRetries is how many consecutive Retry results a session tolerates.
	// The next one fails the session with ErrDecodeFatal.
	MaxRetries = 5
)

// Status is the outcome of one Worker.Step call.
type Status int

const (
	// Worked means input was consumed or output produced.
	Worked Status = iota
	// Idle means neither buffer had work; the stage waits one poll interval.
	Idle
	// Retry is a recoverable failure.
	Retry
	// Warn reports a non-fatal problem in Err; the session continues.
	Warn
	// Failed ends the session with Err.
	Failed
	// Finished ends the session normally.
	Finished
)

// Result is returned by Worker.Step.
type Result struct {
	Status Status
	Err    error
	Bytes  int // bytes written to the output buffer

	// Announce asks the stage to emit STARTED with the payload below. Only
	// the first announcement of a session is published.
	Announce  bool
	Container audio.ContainerType
	Info      audio.StreamInfo
	HasInfo   bool
}

// Worker is the stage-specific part of a Stage.
type Worker interface {
	// Start prepares a session. An error ends it before it began.
	Start(cmd Command) error
	// Step performs one unit of work. draining is true once STOP_GRACEFULLY
	// was received: no new input will arrive, and the worker returns
	// Finished after everything buffered reached its output and the output
	// buffer was emptied by the consumer.
	Step(draining bool) Result
	// Stop ends the session, resetting the worker's buffers.
	Stop()
}

// Handler is implemented by workers that accept commands other than
// START, STOP and STOP_GRACEFULLY.
type Handler interface {
	Handle(cmd Command)
}

// Interrupter is implemented by workers whose Step may block on I/O.
// Interrupt is called from the sender's goroutine when STOP or
// STOP_GRACEFULLY is queued, and when the stage's context ends. It must
// make a blocked Start or Step return soon; a call cut short this way must
// not report a failure.
type Interrupter interface {
	Interrupt()
}

// Options configures a Stage. Zero values select defaults.
type Options struct {
	Name         string
	PollInterval time.Duration
	EventQueue   int
	CommandQueue int
	Logger       *log.Logger
}

// Stats is a snapshot of a stage's counters.
type Stats struct {
	Sessions      uint64
	Bytes         uint64
	Warnings      uint64
	Retries       uint64
	DroppedEvents uint64
}

// Stage runs a Worker through the lifecycle
//
//	IDLE -> STARTING -> STARTED -> RUNNING <-> IDLE -> STOPPING -> STOPPED
//
// and then waits for the next START. Commands arrive on a bounded queue
// and events leave on another; the controller is the only reader.
type Stage struct {
	name   string
	worker Worker
	poll   time.Duration
	log    *log.Logger

	commands chan Command
	events   chan Event

	sessions      atomic.Uint64
	bytes         atomic.Uint64
	warnings      atomic.Uint64
	retries       atomic.Uint64
	droppedEvents atomic.Uint64
}

// New returns a Stage for w. Run must be called to start it.
func New(w Worker, opts Options) *Stage {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.EventQueue <= 0 {
		opts.EventQueue = DefaultQueueSize
	}
	if opts.CommandQueue <= 0 {
		opts.CommandQueue = DefaultQueueSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if opts.Name != "" {
		logger = logger.WithPrefix(opts.Name)
	}

	return &Stage{
		name:     opts.Name,
		worker:   w,
		poll:     opts.PollInterval,
		log:      logger,
		commands: make(chan Command, opts.CommandQueue),
		events:   make(chan Event, opts.EventQueue),
	}
}

func (s *Stage) Name() string { return s.name }

// Events returns the stage's event queue.
func (s *Stage) Events() <-chan Event { return s.events }

// Send queues cmd, waiting for room until ctx ends.
func (s *Stage) Send(ctx context.Context, cmd Command) error {
	select {
	case s.commands <- cmd:
		s.interrupt(cmd)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend queues cmd if there is room.
func (s *Stage) TrySend(cmd Command) bool {
	select {
	case s.commands <- cmd:
		s.interrupt(cmd)
		return true
	default:
		return false
	}
}

func (s *Stage) interrupt(cmd Command) {
	if cmd.Type != CommandStop && cmd.Type != CommandStopGracefully {
		return
	}
	if i, ok := s.worker.(Interrupter); ok {
		i.Interrupt()
	}
}

func (s *Stage) Stats() Stats {
	return Stats{
		Sessions:      s.sessions.Load(),
		Bytes:         s.bytes.Load(),
		Warnings:      s.warnings.Load(),
		Retries:       s.retries.Load(),
		DroppedEvents: s.droppedEvents.Load(),
	}
}

// Run executes sessions until ctx ends. It always returns nil; failures are
// reported as WARNING events.
func (s *Stage) Run(ctx context.Context) error {
	if i, ok := s.worker.(Interrupter); ok {
		stop := context.AfterFunc(ctx, i.Interrupt)
		defer stop()
	}

	var next *Command

	for {
		cmd := next
		if cmd == nil {
			var ok bool
			if cmd, ok = s.awaitStart(ctx); !ok {
				return nil
			}
		}

		next = s.session(ctx, *cmd)
		if ctx.Err() != nil {
			return nil
		}
	}
}

// awaitStart blocks until a START command arrives. Other commands are passed
// to the worker's Handler, stop commands are dropped.
func (s *Stage) awaitStart(ctx context.Context) (*Command, bool) {
	for {
		select {
		case <-ctx.Done():
			return nil, false
		case cmd := <-s.commands:
			switch cmd.Type {
			case CommandStart:
				return &cmd, true
			case CommandStop, CommandStopGracefully:
			default:
				s.handle(cmd)
			}
		}
	}
}

// session runs one START..STOPPED cycle. It returns a START command that
// interrupted the session, if any.
func (s *Stage) session(ctx context.Context, cmd Command) *Command {
	session := cmd.Session
	if session == uuid.Nil {
		session = uuid.New()
	}
	s.sessions.Add(1)
	logger := s.log.With("session", session)

	logger.Debug("starting")
	s.emit(ctx, Event{Type: EventStarting, Session: session})

	if err := s.worker.Start(cmd); err != nil {
		s.warn(ctx, logger, session, err)
		s.worker.Stop()
		s.emit(ctx, Event{Type: EventStopped, Session: session})
		return nil
	}

	var (
		started  bool
		draining bool
		retries  int
		last     = EventStopped
		next     *Command
		held     *Command
		timer    = time.NewTimer(s.poll)
	)
	defer timer.Stop()

loop:
	for {
		for {
			c, ok := s.pending(&held)
			if !ok {
				break
			}
			switch c.Type {
			case CommandStart:
				logger.Debug("restart requested")
				next = &c
				break loop
			case CommandStop:
				logger.Debug("stop requested")
				break loop
			case CommandStopGracefully:
				if !draining {
					logger.Debug("draining")
				}
				draining = true
			default:
				s.handle(c)
			}
		}

		res := s.worker.Step(draining)
		if res.Bytes > 0 {
			s.bytes.Add(uint64(res.Bytes))
		}
		if res.Announce && !started {
			started = true
			logger.Debug("started", "container", res.Container, "info", res.Info)
			s.emit(ctx, Event{
				Type:      EventStarted,
				Session:   session,
				Container: res.Container,
				Info:      res.Info,
				HasInfo:   res.HasInfo,
			})
		}

		wait := false
		switch res.Status {
		case Worked:
			retries = 0
			last = s.signal(session, last, EventRunning)
		case Idle:
			retries = 0
			last = s.signal(session, last, EventIdle)
			wait = true
		case Retry:
			retries++
			s.retries.Add(1)
			if retries > MaxRetries {
				s.warn(ctx, logger, session, Wrap(ErrDecodeFatal, s.name, "step",
					fmt.Errorf("%d consecutive retryable failures: %w", retries, res.Err)))
				break loop
			}
			wait = true
		case Warn:
			retries = 0
			s.warnings.Add(1)
			logger.Warn("warning", "err", res.Err)
			s.tryEmit(Event{Type: EventWarning, Session: session, Err: res.Err})
		case Failed:
			s.warn(ctx, logger, session, res.Err)
			break loop
		case Finished:
			logger.Debug("finished")
			break loop
		}

		if ctx.Err() != nil {
			s.worker.Stop()
			return nil
		}
		if !wait {
			continue
		}

		timer.Reset(s.poll)
		select {
		case <-ctx.Done():
			s.worker.Stop()
			return nil
		case <-timer.C:
		case c := <-s.commands:
			held = &c
			timer.Stop()
		}
	}

	s.emit(ctx, Event{Type: EventStopping, Session: session})
	s.worker.Stop()
	s.emit(ctx, Event{Type: EventStopped, Session: session})
	logger.Debug("stopped")

	return next
}

// pending returns the command taken while waiting, if any, or the next
// queued one without blocking.
func (s *Stage) pending(held **Command) (Command, bool) {
	if *held != nil {
		c := **held
		*held = nil
		return c, true
	}

	select {
	case c := <-s.commands:
		return c, true
	default:
		return Command{}, false
	}
}

func (s *Stage) handle(cmd Command) {
	if h, ok := s.worker.(Handler); ok {
		h.Handle(cmd)
		return
	}

	s.log.Debug("ignoring command", "command", cmd.Type)
}

func (s *Stage) warn(ctx context.Context, logger *log.Logger, session uuid.UUID, err error) {
	s.warnings.Add(1)
	if IsTerminal(err) {
		logger.Error("stage failed", "err", err)
	} else {
		logger.Warn("stage failed", "err", err)
	}
	s.emit(ctx, Event{Type: EventWarning, Session: session, Err: err})
}

// signal emits RUNNING or IDLE when it differs from the last one published.
func (s *Stage) signal(session uuid.UUID, last, t EventType) EventType {
	if last == t {
		return last
	}
	if !s.tryEmit(Event{Type: t, Session: session}) {
		return last
	}

	return t
}

// emit delivers a lifecycle event, waiting until ctx ends.
func (s *Stage) emit(ctx context.Context, ev Event) {
	ev.Stage = s.name
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

// tryEmit delivers ev if the queue has room and counts it as dropped
// otherwise.
func (s *Stage) tryEmit(ev Event) bool {
	ev.Stage = s.name
	select {
	case s.events <- ev:
		return true
	default:
		s.droppedEvents.Add(1)
		return false
	}
}
