// SPDX-License-Identifier: EPL-2.0

package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/source"
	"github.com/ik5/duckpipe/stage"
	"github.com/ik5/duckpipe/task"
	"golang.org/x/sync/errgroup"
)

// DefaultTransferBytes is the size of the transfer task's buffer.
const DefaultTransferBytes = 8192

// Target receives the pipeline's resampled PCM, normally a mixer input.
type Target interface {
	Write(p []byte) int
	Free() int
}

// Commander accepts commands, normally the mixer stage.
type Commander interface {
	Send(ctx context.Context, cmd task.Command) error
}

// Options configures a Pipeline.
type Options struct {
	// Name prefixes the stage names and is the Stage of pipeline events.
	Name string

	Target Target
	// Mixer receives Clear after an immediate stop. May be nil.
	Mixer Commander
	Clear task.CommandType

	Registry *audio.Registry
	Opener   *source.Opener

	SampleRate int
	Channels   int

	Buffers       stage.Buffers
	TransferBytes int
	Task          task.Options
}

// Pipeline runs a Reader, a Decoder and a Resampler in series and feeds
// their output into Target. A transfer task moves bytes between the stages,
// relays each stage's announcement as START to the next one, and publishes
// one pipeline-level event stream.
type Pipeline struct {
	name   string
	opts   Options
	log    *log.Logger
	target Target
	mixer  Commander
	clear  task.CommandType

	reader    *stage.Reader
	decoder   *stage.Decoder
	resampler *stage.Resampler

	readerTask    *task.Stage
	decoderTask   *task.Stage
	resamplerTask *task.Stage

	commands chan task.Command
	events   chan task.Event
	transfer []byte
	poll     time.Duration
}

func New(opts Options) *Pipeline {
	if opts.Name == "" {
		opts.Name = "pipeline"
	}
	if opts.TransferBytes <= 0 {
		opts.TransferBytes = DefaultTransferBytes
	}
	if opts.Task.PollInterval <= 0 {
		opts.Task.PollInterval = task.DefaultPollInterval
	}
	if opts.Task.EventQueue <= 0 {
		opts.Task.EventQueue = task.DefaultQueueSize
	}
	if opts.Task.CommandQueue <= 0 {
		opts.Task.CommandQueue = task.DefaultQueueSize
	}
	if opts.Task.Logger == nil {
		opts.Task.Logger = log.New(io.Discard)
	}

	p := &Pipeline{
		name:     opts.Name,
		opts:     opts,
		log:      opts.Task.Logger.WithPrefix(opts.Name),
		target:   opts.Target,
		mixer:    opts.Mixer,
		clear:    opts.Clear,
		commands: make(chan task.Command, opts.Task.CommandQueue),
		events:   make(chan task.Event, opts.Task.EventQueue),
		transfer: make([]byte, opts.TransferBytes),
		poll:     opts.Task.PollInterval,
	}

	p.reader = stage.NewReader(opts.Opener, opts.Buffers)
	p.decoder = stage.NewDecoder(opts.Registry, opts.Buffers)
	p.resampler = stage.NewResampler(opts.SampleRate, opts.Channels, opts.Buffers)

	p.readerTask = task.New(p.reader, p.stageOptions(stage.ReaderName))
	p.decoderTask = task.New(p.decoder, p.stageOptions(stage.DecoderName))
	p.resamplerTask = task.New(p.resampler, p.stageOptions(stage.ResamplerName))

	return p
}

func (p *Pipeline) stageOptions(name string) task.Options {
	o := p.opts.Task
	o.Name = p.name + "/" + name
	return o
}

func (p *Pipeline) Name() string { return p.name }

// Events returns the pipeline-level event stream.
func (p *Pipeline) Events() <-chan task.Event { return p.events }

// Start begins a session for d. A running session is stopped immediately
// first. The returned id tags every event of the new session.
func (p *Pipeline) Start(ctx context.Context, d source.Descriptor) (uuid.UUID, error) {
	id := uuid.New()
	cmd := task.Start(id)
	cmd.Source = d

	return id, p.send(ctx, cmd)
}

// Stop ends the session immediately, dropping buffered audio.
func (p *Pipeline) Stop(ctx context.Context) error {
	return p.send(ctx, task.Stop())
}

// StopGracefully stops reading and lets buffered audio play out.
func (p *Pipeline) StopGracefully(ctx context.Context) error {
	return p.send(ctx, task.StopGracefully())
}

func (p *Pipeline) send(ctx context.Context, cmd task.Command) error {
	select {
	case p.commands <- cmd:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns the counters of the three stages keyed by stage name.
func (p *Pipeline) Stats() map[string]task.Stats {
	return map[string]task.Stats{
		p.readerTask.Name():    p.readerTask.Stats(),
		p.decoderTask.Name():   p.decoderTask.Stats(),
		p.resamplerTask.Name(): p.resamplerTask.Stats(),
	}
}

// Run runs the stages and the transfer task until ctx ends.
func (p *Pipeline) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return p.readerTask.Run(ctx) })
	g.Go(func() error { return p.decoderTask.Run(ctx) })
	g.Go(func() error { return p.resamplerTask.Run(ctx) })
	g.Go(func() error { return p.run(ctx) })

	return g.Wait()
}
