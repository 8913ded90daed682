// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/ik5/duckpipe/internal/audiotest"
	"github.com/ik5/duckpipe/task"
)

func started(t *testing.T, opts Options) *Mixer {
	t.Helper()

	m := New(opts)
	if err := m.Start(task.Command{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(m.Stop)

	return m
}

// mix steps the mixer until it idles and returns its output.
func mix(t *testing.T, m *Mixer) []int16 {
	t.Helper()

	var out []byte
	buf := make([]byte, 1024)
	for range 10000 {
		res := m.Step(false)
		for {
			n := m.Read(buf)
			if n == 0 {
				break
			}
			out = append(out, buf[:n]...)
		}
		if res.Status == task.Idle {
			return audiotest.Samples(out)
		}
	}

	t.Fatal("mixer never went idle")
	return nil
}

func TestMixer_PassThrough(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 2})

	media := audiotest.Counter(1000, 2)
	if n := m.Media().Write(audiotest.Bytes(media)); n != 4000 {
		t.Fatalf("Write() = %d, want 4000", n)
	}
	if got := mix(t, m); !slices.Equal(got, media) {
		t.Errorf("media alone changed: got %d samples", len(got))
	}

	ann := audiotest.Counter(500, 2)
	m.Announcement().Write(audiotest.Bytes(ann))
	if got := mix(t, m); !slices.Equal(got, ann) {
		t.Errorf("announcement alone changed: got %d samples", len(got))
	}
}

func TestMixer_AnnouncesOutput(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 2})
	res := m.Step(false)
	if !res.Announce || !res.HasInfo || res.Info != m.Output() {
		t.Errorf("first step = %+v, want announcement of %+v", res, m.Output())
	}
	if res.Status != task.Idle {
		t.Errorf("status = %v, want Idle without input", res.Status)
	}
}

func TestMixer_ClipAvoidance(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	extreme := func() int16 {
		switch rng.IntN(4) {
		case 0:
			return math.MaxInt16
		case 1:
			return math.MinInt16
		}
		return int16(rng.IntN(1<<16) - 1<<15)
	}

	for round := range 50 {
		m := started(t, Options{SampleRate: 16000, Channels: 1, ChunkBytes: 512})

		media := audiotest.Generate(256, 1, func(int, int) int16 { return extreme() })
		ann := audiotest.Generate(256, 1, func(int, int) int16 { return extreme() })
		m.Media().Write(audiotest.Bytes(media))
		m.Announcement().Write(audiotest.Bytes(ann))

		got := mix(t, m)
		if len(got) != len(media) {
			t.Fatalf("round %d: %d samples, want %d", round, len(got), len(media))
		}

		f := clipFactor(media, ann)
		for i, v := range got {
			scaled := int32(float64(media[i]) * f)
			sum := scaled + int32(ann[i])
			if sum > math.MaxInt16 || sum < math.MinInt16 {
				t.Fatalf("round %d sample %d: %d + %d leaves 16-bit range", round, i, scaled, ann[i])
			}
			if int32(v) != sum {
				t.Fatalf("round %d sample %d = %d, want %d", round, i, v, sum)
			}
		}
	}
}

func TestMixer_ClipAvoidanceWorstCase(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 1})

	media := []int16{math.MaxInt16, math.MinInt16, 1000, -1000}
	ann := []int16{math.MaxInt16, math.MinInt16, 0, 0}
	m.Media().Write(audiotest.Bytes(media))
	m.Announcement().Write(audiotest.Bytes(ann))

	// announcement at full scale leaves no room for media
	want := []int16{math.MaxInt16, math.MinInt16, 0, 0}
	if got := mix(t, m); !slices.Equal(got, want) {
		t.Errorf("mixed = %v, want %v", got, want)
	}
}

func TestMixer_ClipFactor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		media []int16
		ann   []int16
		want  float64
	}{
		{"no overflow", []int16{100, -100}, []int16{200, -200}, 1},
		{"positive", []int16{20000, 0}, []int16{22767, 0}, 0.5},
		{"negative", []int16{-20000}, []int16{-22768}, 0.5},
		{"worst sample wins", []int16{20000, 30000}, []int16{22767, 32767}, 0},
	}

	for _, tt := range tests {
		if got := clipFactor(tt.media, tt.ann); got != tt.want {
			t.Errorf("%s: clipFactor() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMixer_Duck(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 8000, Channels: 1, ChunkBytes: 256})
	m.Handle(task.Duck(0.3, 1600))

	if got := m.Ratio(); got != 0.3 {
		t.Errorf("Ratio() = %v, want 0.3 committed at once", got)
	}

	m.Media().Write(audiotest.Bytes(audiotest.Constant(2000, 1, 10000)))
	got := mix(t, m)
	if len(got) != 2000 {
		t.Fatalf("%d samples, want 2000", len(got))
	}

	if got[0] >= 10000 {
		t.Errorf("first sample = %d, want below 10000", got[0])
	}
	for i := 1; i < 1600; i++ {
		if got[i] > got[i-1] {
			t.Fatalf("sample %d = %d rises above %d", i, got[i], got[i-1])
		}
	}
	want := int16(float64(10000) * 0.3)
	for i := 1599; i < 2000; i++ {
		if got[i] != want {
			t.Fatalf("sample %d = %d, want %d", i, got[i], want)
		}
	}
}

func TestMixer_PauseResume(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 2})
	m.Handle(task.Command{Type: task.CommandPauseMedia})

	m.Media().Write(audiotest.Bytes(audiotest.Counter(100, 2)))
	if res := m.Step(false); res.Status != task.Idle {
		t.Errorf("paused status = %v, want Idle", res.Status)
	}
	if got := m.Media().Available(); got != 400 {
		t.Errorf("paused media Available() = %d, want 400", got)
	}

	// announcements keep flowing while media is paused
	m.Announcement().Write(audiotest.Bytes(audiotest.Constant(10, 2, 5)))
	if got := mix(t, m); len(got) != 20 {
		t.Errorf("announcement while paused: %d samples, want 20", len(got))
	}

	m.Handle(task.Command{Type: task.CommandResumeMedia})
	if got := mix(t, m); len(got) != 200 {
		t.Errorf("resumed: %d samples, want 200", len(got))
	}
}

func TestMixer_Clear(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 2})
	m.Media().Write(make([]byte, 400))
	m.Announcement().Write(make([]byte, 800))

	m.Handle(task.Command{Type: task.CommandClearMedia})
	if got := m.Media().Available(); got != 0 {
		t.Errorf("media Available() = %d, want 0", got)
	}
	if got := m.Announcement().Available(); got != 800 {
		t.Errorf("announcement Available() = %d, want untouched 800", got)
	}

	m.Handle(task.Command{Type: task.CommandClearAnnouncement})
	if got := m.Announcement().Available(); got != 0 {
		t.Errorf("announcement Available() = %d, want 0", got)
	}
}

func TestMixer_OutputBackpressure(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 2, OutputBytes: 1024, ChunkBytes: 256})
	m.Media().Write(make([]byte, 4096))

	var res task.Result
	for range 20 {
		res = m.Step(false)
	}
	if res.Status != task.Idle {
		t.Errorf("status = %v, want Idle with full output", res.Status)
	}
	if got := m.Available(); got != 1024 {
		t.Errorf("output Available() = %d, want 1024", got)
	}
	if got := m.Media().Available(); got != 4096-1024 {
		t.Errorf("media Available() = %d, want %d", got, 4096-1024)
	}
}

func TestMixer_DrainFinishes(t *testing.T) {
	t.Parallel()

	m := started(t, Options{SampleRate: 16000, Channels: 2})
	m.Media().Write(make([]byte, 64))

	if res := m.Step(true); res.Status != task.Worked {
		t.Fatalf("status = %v, want Worked", res.Status)
	}
	m.Read(make([]byte, 64))
	if res := m.Step(true); res.Status != task.Finished {
		t.Errorf("status = %v, want Finished", res.Status)
	}
}
