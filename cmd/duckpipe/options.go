// SPDX-License-Identifier: EPL-2.0

package main

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/config"
	"github.com/ik5/duckpipe/mixer"
	"github.com/ik5/duckpipe/output"
	"github.com/ik5/duckpipe/player"
	"github.com/ik5/duckpipe/source"
	"github.com/ik5/duckpipe/stage"
	"github.com/ik5/duckpipe/task"
)

func outputInfo(cfg *config.Config) audio.StreamInfo {
	return audio.StreamInfo{
		Channels:      cfg.Output.Channels,
		BitsPerSample: 16,
		SampleRate:    cfg.Output.SampleRate,
	}
}

func opener(cfg *config.Config) *source.Opener {
	return &source.Opener{
		Client:    source.NewClient(cfg.HTTP.Timeout.Std()),
		UserAgent: cfg.HTTP.UserAgent,
	}
}

func playerOptions(cfg *config.Config, sink output.Sink, reg *audio.Registry, logger *log.Logger) player.Options {
	duckRatio := cfg.Ducking.Ratio

	return player.Options{
		SampleRate: cfg.Output.SampleRate,
		Channels:   cfg.Output.Channels,
		Sink:       sink,
		Registry:   reg,
		Opener:     opener(cfg),
		Buffers: stage.Buffers{
			Raw:       cfg.Buffers.RawBytes,
			Decoded:   cfg.Buffers.DecodedBytes,
			Resampled: cfg.Buffers.ResampledBytes,
		},
		Mixer: mixer.Options{
			InputBytes:  cfg.Buffers.MixerInputBytes,
			OutputBytes: cfg.Buffers.MixerOutputBytes,
			ChunkBytes:  cfg.Buffers.MixerChunkBytes,
		},
		TransferBytes: cfg.Buffers.TransferBytes,
		SpeakerChunk:  cfg.Buffers.SpeakerChunkBytes,
		Task: task.Options{
			PollInterval: cfg.Timing.PollInterval.Std(),
			EventQueue:   cfg.Timing.EventQueue,
			CommandQueue: cfg.Timing.CommandQueue,
			Logger:       logger,
		},
		Tick:       cfg.Timing.TickInterval.Std(),
		AutoDuck:   cfg.Ducking.Auto,
		DuckRatio:  &duckRatio,
		DuckFade:   cfg.Ducking.Fade.Std(),
		Volume:     cfg.Volume.Initial,
		VolumeStep: cfg.Volume.Step,
	}
}

// descriptor turns a command line argument into a source descriptor. A
// "name:" prefix forces the container, e.g. "mp3:https://host/stream".
func descriptor(arg string) source.Descriptor {
	d := source.File(arg)
	if name, rest, ok := strings.Cut(arg, ":"); ok && !strings.HasPrefix(rest, "//") {
		if ct, err := audio.ParseContainer(name); err == nil && ct != audio.ContainerNone {
			d = source.File(rest)
			d.Container = ct
		}
	}

	return d
}
