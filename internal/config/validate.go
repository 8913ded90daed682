// SPDX-License-Identifier: EPL-2.0

package config

import (
	"errors"
	"fmt"
	"slices"
)

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"auto", "text", "json", "logfmt"}
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateBuffers(); err != nil {
		return err
	}
	if err := c.validateTiming(); err != nil {
		return err
	}
	if err := c.validateDucking(); err != nil {
		return err
	}
	if err := c.validateVolume(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOutput() error {
	if c.Output.SampleRate <= 0 {
		return errors.New("output.sample_rate must be positive")
	}
	if c.Output.Channels != 1 && c.Output.Channels != 2 {
		return fmt.Errorf("output.channels must be 1 or 2, got %d", c.Output.Channels)
	}
	return nil
}

func (c *Config) validateBuffers() error {
	b := c.Buffers
	sizes := []struct {
		name string
		v    int
	}{
		{"raw_bytes", b.RawBytes},
		{"decoded_bytes", b.DecodedBytes},
		{"resampled_bytes", b.ResampledBytes},
		{"mixer_input_bytes", b.MixerInputBytes},
		{"mixer_output_bytes", b.MixerOutputBytes},
		{"transfer_bytes", b.TransferBytes},
		{"mixer_chunk_bytes", b.MixerChunkBytes},
		{"speaker_chunk_bytes", b.SpeakerChunkBytes},
	}
	for _, s := range sizes {
		if s.v <= 0 {
			return fmt.Errorf("buffers.%s must be positive", s.name)
		}
	}

	frame := c.Output.Channels * 2
	if b.MixerChunkBytes < frame || b.SpeakerChunkBytes < frame {
		return fmt.Errorf("buffers: chunk sizes must hold at least one %d-byte frame", frame)
	}
	return nil
}

func (c *Config) validateTiming() error {
	t := c.Timing
	if t.PollInterval <= 0 || t.TickInterval <= 0 {
		return errors.New("timing.poll_interval and timing.tick_interval must be positive")
	}
	if t.StopTimeout < 0 {
		return errors.New("timing.stop_timeout must not be negative")
	}
	if t.EventQueue <= 0 || t.CommandQueue <= 0 {
		return errors.New("timing.event_queue and timing.command_queue must be positive")
	}
	return nil
}

func (c *Config) validateDucking() error {
	if c.Ducking.Ratio < 0 || c.Ducking.Ratio > 1 {
		return errors.New("ducking.ratio must be between 0 and 1")
	}
	if c.Ducking.Fade < 0 {
		return errors.New("ducking.fade must not be negative")
	}
	return nil
}

func (c *Config) validateVolume() error {
	if c.Volume.Initial <= 0 || c.Volume.Initial > 1 {
		return errors.New("volume.initial must be in (0, 1]")
	}
	if c.Volume.Step <= 0 || c.Volume.Step > 1 {
		return errors.New("volume.step must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level must be one of %v, got %q", logLevels, c.Logging.Level)
	}
	if !slices.Contains(logFormats, c.Logging.Format) {
		return fmt.Errorf("logging.format must be one of %v, got %q", logFormats, c.Logging.Format)
	}
	return nil
}
