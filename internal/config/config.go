// SPDX-License-Identifier: EPL-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration written as a Go duration string ("50ms").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", b, err)
	}
	*d = Duration(v)

	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Output is the format of the mixed stream.
type Output struct {
	SampleRate int `toml:"sample_rate"`
	Channels   int `toml:"channels"`
}

// Buffers sizes every ring buffer, in bytes.
type Buffers struct {
	RawBytes          int `toml:"raw_bytes"`
	DecodedBytes      int `toml:"decoded_bytes"`
	ResampledBytes    int `toml:"resampled_bytes"`
	MixerInputBytes   int `toml:"mixer_input_bytes"`
	MixerOutputBytes  int `toml:"mixer_output_bytes"`
	TransferBytes     int `toml:"transfer_bytes"`
	MixerChunkBytes   int `toml:"mixer_chunk_bytes"`
	SpeakerChunkBytes int `toml:"speaker_chunk_bytes"`
}

// Timing holds the poll intervals and queue depths of the tasks.
type Timing struct {
	PollInterval Duration `toml:"poll_interval"`
	TickInterval Duration `toml:"tick_interval"`
	StopTimeout  Duration `toml:"stop_timeout"`
	EventQueue   int      `toml:"event_queue"`
	CommandQueue int      `toml:"command_queue"`
}

// Ducking controls automatic ducking under announcements.
type Ducking struct {
	Auto  bool     `toml:"auto"`
	Ratio float64  `toml:"ratio"`
	Fade  Duration `toml:"fade"`
}

// Volume holds the software volume settings.
type Volume struct {
	Initial float64 `toml:"initial"`
	Step    float64 `toml:"step"`
}

// HTTP configures the HTTP source.
type HTTP struct {
	// Timeout limits connecting and waiting for response headers.
	Timeout   Duration `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the complete player configuration.
type Config struct {
	Output  Output  `toml:"output"`
	Buffers Buffers `toml:"buffers"`
	Timing  Timing  `toml:"timing"`
	Ducking Ducking `toml:"ducking"`
	Volume  Volume  `toml:"volume"`
	HTTP    HTTP    `toml:"http"`
	Logging Logging `toml:"logging"`
}

// Load reads path over the defaults and validates the result. An empty or
// missing path yields the defaults; the returned bool reports whether a
// file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	exists := false
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("read config: %w", err)
		default:
			exists = true
			if err := Parse(data, &cfg); err != nil {
				return nil, false, err
			}
		}
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, exists, err
	}

	return &cfg, exists, nil
}

// Parse decodes TOML into cfg. Keys not known to Config are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	return nil
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	return data, nil
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.HTTP.UserAgent = strings.TrimSpace(c.HTTP.UserAgent)
}
