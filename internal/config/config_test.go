// SPDX-License-Identifier: EPL-2.0

package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/ik5/duckpipe/internal/config"
)

func write(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "duckpipe.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.toml")} {
		cfg, exists, err := config.Load(path)
		if err != nil {
			t.Fatalf("Load(%q) error = %v", path, err)
		}
		if exists {
			t.Errorf("Load(%q) reported a file", path)
		}
		if *cfg != config.Default() {
			t.Errorf("Load(%q) = %+v, want defaults", path, *cfg)
		}
	}

	def := config.Default()
	if def.Output.SampleRate != 16000 || def.Output.Channels != 2 {
		t.Errorf("default output = %+v", def.Output)
	}
	if def.Ducking.Fade.Std() != 50*time.Millisecond || !def.Ducking.Auto {
		t.Errorf("default ducking = %+v", def.Ducking)
	}
	if def.Buffers.MixerInputBytes != 32768 || def.Buffers.MixerChunkBytes != 4096 {
		t.Errorf("default buffers = %+v", def.Buffers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Parallel()

	path := write(t, `
[output]
sample_rate = 48000
channels = 1

[ducking]
ratio = 0.5
fade = "250ms"

[timing]
stop_timeout = "5s"

[logging]
level = " DEBUG "
format = "JSON"
`)

	cfg, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !exists {
		t.Error("Load() did not report the file")
	}

	if cfg.Output.SampleRate != 48000 || cfg.Output.Channels != 1 {
		t.Errorf("output = %+v", cfg.Output)
	}
	if cfg.Ducking.Ratio != 0.5 || cfg.Ducking.Fade.Std() != 250*time.Millisecond {
		t.Errorf("ducking = %+v", cfg.Ducking)
	}
	if cfg.Timing.StopTimeout.Std() != 5*time.Second {
		t.Errorf("stop_timeout = %v", cfg.Timing.StopTimeout.Std())
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v, want normalized values", cfg.Logging)
	}
	// untouched sections keep their defaults
	if cfg.Buffers != config.Default().Buffers {
		t.Errorf("buffers = %+v, want defaults", cfg.Buffers)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "syntax", content: "[output\n", want: "parse config"},
		{name: "unknown key", content: "[output]\nbitrate = 3\n", want: "parse config"},
		{name: "bad duration", content: "[ducking]\nfade = \"soon\"\n", want: "invalid duration"},
		{name: "channels", content: "[output]\nchannels = 6\n", want: "output.channels"},
		{name: "rate", content: "[output]\nsample_rate = 0\n", want: "output.sample_rate"},
		{name: "ratio", content: "[ducking]\nratio = 1.5\n", want: "ducking.ratio"},
		{name: "buffer", content: "[buffers]\nraw_bytes = -1\n", want: "buffers.raw_bytes"},
		{name: "chunk", content: "[buffers]\nmixer_chunk_bytes = 2\n", want: "chunk sizes"},
		{name: "volume", content: "[volume]\ninitial = 0\n", want: "volume.initial"},
		{name: "step", content: "[volume]\nstep = 2\n", want: "volume.step"},
		{name: "poll", content: "[timing]\npoll_interval = \"0s\"\n", want: "timing.poll_interval"},
		{name: "level", content: "[logging]\nlevel = \"loud\"\n", want: "logging.level"},
		{name: "format", content: "[logging]\nformat = \"xml\"\n", want: "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := config.Load(write(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Ducking.Fade = config.Duration(75 * time.Millisecond)
	cfg.HTTP.UserAgent = "test/1"

	data, err := cfg.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), "75ms") {
		t.Errorf("durations are not written as strings:\n%s", data)
	}

	var back config.Config
	if err := toml.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back != cfg {
		t.Errorf("round trip = %+v, want %+v", back, cfg)
	}
}
