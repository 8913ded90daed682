// SPDX-License-Identifier: EPL-2.0

package output

import (
	"bytes"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/audiotest"
	"github.com/ik5/duckpipe/task"
)

var stereo16k = audio.StreamInfo{Channels: 2, BitsPerSample: 16, SampleRate: 16000}

// feed is an in-memory Feed.
type feed struct{ data []byte }

func (f *feed) Read(p []byte) int {
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n
}

func (f *feed) Available() int { return len(f.data) }

// stingySink accepts at most limit bytes per write while advertising more.
type stingySink struct {
	Capture
	limit int
	err   error
}

func (s *stingySink) Write(p []byte) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.Capture.Write(p[:min(len(p), s.limit)])
}

func TestGain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level float64
		want  float64
	}{
		{level: 0, want: 0},
		{level: 1, want: 1},
		{level: 0.5, want: math.Pow(10, -25.0/20)},
		{level: 0.9, want: math.Pow(10, -5.0/20)},
		{level: 2, want: 1},
		{level: -1, want: 0},
		{level: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		if got := Gain(tt.level); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Gain(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}

	for l := 0.05; l <= 1; l += 0.05 {
		if Gain(l) <= Gain(l-0.05) {
			t.Fatalf("Gain not increasing at %v", l)
		}
	}
}

func TestVolume(t *testing.T) {
	t.Parallel()

	v := NewVolume(0.5)
	if got := v.Add(0.7); got != 1 {
		t.Errorf("Add(0.7) = %v, want clamp to 1", got)
	}
	if got := v.Add(-3); got != 0 {
		t.Errorf("Add(-3) = %v, want clamp to 0", got)
	}

	v.Set(1)
	samples := []int16{1000, -1000}
	v.Apply(samples)
	if !slices.Equal(samples, []int16{1000, -1000}) {
		t.Errorf("unity gain changed samples: %v", samples)
	}

	v.Mute()
	if v.Gain() != 0 || v.Level() != 1 {
		t.Errorf("muted: gain %v level %v, want 0 and 1", v.Gain(), v.Level())
	}
	v.Apply(samples)
	if !slices.Equal(samples, []int16{0, 0}) {
		t.Errorf("muted samples = %v, want silence", samples)
	}

	v.Unmute()
	if v.Gain() != 1 {
		t.Errorf("unmuted gain = %v, want 1", v.Gain())
	}
}

func TestSpeaker_Plays(t *testing.T) {
	t.Parallel()

	samples := audiotest.Counter(3000, 2)
	sink := NewCapture(0)
	vol := NewVolume(1)
	s := NewSpeaker(&feed{data: audiotest.Bytes(samples)}, sink, stereo16k, vol, 1000)
	if err := s.Start(task.Command{}); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	res := s.Step(false)
	if !res.Announce || res.Info != stereo16k {
		t.Errorf("first step = %+v, want announcement", res)
	}
	if res.Status != task.Worked || res.Bytes != 1000 {
		t.Errorf("first step status %v bytes %d, want Worked 1000", res.Status, res.Bytes)
	}

	for range 100 {
		if s.Step(true).Status == task.Finished {
			break
		}
	}

	if got := sink.Samples(); !slices.Equal(got, samples) {
		t.Errorf("played %d samples, want %d unchanged", len(got), len(samples))
	}
}

func TestSpeaker_AppliesVolume(t *testing.T) {
	t.Parallel()

	sink := NewCapture(0)
	vol := NewVolume(0.5)
	s := NewSpeaker(&feed{data: audiotest.Bytes(audiotest.Constant(100, 2, 10000))}, sink, stereo16k, vol, 0)
	s.Start(task.Command{})
	s.Step(false)

	want := int16(10000 * Gain(0.5))
	for i, v := range sink.Samples() {
		if v != want {
			t.Fatalf("sample %d = %d, want %d", i, v, want)
		}
	}
}

func TestSpeaker_ShortWrite(t *testing.T) {
	t.Parallel()

	sink := &stingySink{limit: 100}
	s := NewSpeaker(&feed{data: audiotest.Bytes(audiotest.Counter(100, 2))}, sink, stereo16k, nil, 0)
	s.Start(task.Command{})

	res := s.Step(false)
	if res.Status != task.Warn || !errors.Is(res.Err, task.ErrOverflow) {
		t.Fatalf("short write = %v %v, want Warn overflow", res.Status, res.Err)
	}
	if task.IsTerminal(res.Err) {
		t.Error("overflow must not be terminal")
	}

	for range 10 {
		s.Step(false)
	}
	if sink.Len() != 400 {
		t.Errorf("captured %d bytes, want the whole 400 after retries", sink.Len())
	}

	sink.err = errors.New("device gone")
	s.pending = []byte{1, 2, 3, 4}
	if res := s.Step(false); res.Status != task.Failed || !errors.Is(res.Err, task.ErrIO) {
		t.Errorf("sink error = %v %v, want Failed i/o", res.Status, res.Err)
	}
}

func TestSpeaker_Idle(t *testing.T) {
	t.Parallel()

	s := NewSpeaker(&feed{}, NewCapture(0), stereo16k, nil, 0)
	s.Start(task.Command{})

	if res := s.Step(false); res.Status != task.Idle {
		t.Errorf("empty feed = %v, want Idle", res.Status)
	}
	if res := s.Step(true); res.Status != task.Finished {
		t.Errorf("draining empty feed = %v, want Finished", res.Status)
	}
}

func TestWAVFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.wav")
	w, err := CreateWAV(path, stereo16k)
	if err != nil {
		t.Fatalf("CreateWAV() error = %v", err)
	}

	samples := audiotest.Sine(16000, 2, 5000, 440, 12000)
	data := audiotest.Bytes(samples)
	for len(data) > 0 {
		n, err := w.Write(data)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		data = data[n:]
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error = %v", err)
	}
	if dec.SampleRate != 16000 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("header = %d Hz %d ch %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, v := range buf.Data {
		if int16(v) != samples[i] {
			t.Fatalf("sample %d = %d, want %d", i, v, samples[i])
		}
	}
}

func TestWAVFile_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := CreateWAV(filepath.Join(t.TempDir(), "x.wav"), audio.StreamInfo{Channels: 2, BitsPerSample: 16})
	if err == nil {
		t.Error("CreateWAV() with zero sample rate should fail")
	}
}

func TestWAVStream(t *testing.T) {
	t.Parallel()

	var b bytes.Buffer
	sink, err := NewWAVStream(&b, stereo16k)
	if err != nil {
		t.Fatalf("NewWAVStream() error = %v", err)
	}
	if _, err := sink.Write([]byte{1, 0, 2, 0}); err != nil {
		t.Fatal(err)
	}

	got := b.Bytes()
	if len(got) != 48 || string(got[:4]) != "RIFF" || string(got[36:40]) != "data" {
		t.Errorf("stream = %q", got)
	}
}

func TestPaced(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	sink := NewCapture(0)
	// 16 kHz stereo: 64000 bytes per second, lead of 10ms is 640 bytes
	p := NewPaced(sink, stereo16k, 10*time.Millisecond, clock)

	if got := p.FreeBytes(); got != 640 {
		t.Fatalf("FreeBytes() at start = %d, want 640", got)
	}
	n, _ := p.Write(make([]byte, 4096))
	if n != 640 {
		t.Errorf("Write() = %d, want 640", n)
	}
	if got := p.FreeBytes(); got != 0 {
		t.Errorf("FreeBytes() after lead = %d, want 0", got)
	}

	now = now.Add(50 * time.Millisecond)
	if got := p.FreeBytes(); got != 3200 {
		t.Errorf("FreeBytes() after 50ms = %d, want 3200", got)
	}
}

func TestStreamer(t *testing.T) {
	t.Parallel()

	mono := audio.StreamInfo{Channels: 1, BitsPerSample: 16, SampleRate: 8000}
	s := NewStreamer(&feed{data: audiotest.Bytes([]int16{16384, -16384})}, mono, nil)

	if f := s.Format(); int(f.SampleRate) != 8000 || f.NumChannels != 2 {
		t.Errorf("Format() = %+v", f)
	}

	out := make([][2]float64, 4)
	for i := range out {
		out[i] = [2]float64{9, 9}
	}
	n, ok := s.Stream(out)
	if n != 4 || !ok {
		t.Fatalf("Stream() = %d, %v; want 4, true", n, ok)
	}

	want := [][2]float64{{0.5, 0.5}, {-0.5, -0.5}, {0, 0}, {0, 0}}
	if !slices.Equal(out, want) {
		t.Errorf("Stream() samples = %v, want %v", out, want)
	}
	if s.Err() != nil {
		t.Errorf("Err() = %v", s.Err())
	}
}
