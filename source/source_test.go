// SPDX-License-Identifier: EPL-2.0

package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/audiotest"
)

func pullAll(t *testing.T, s Source) []byte {
	t.Helper()

	var out bytes.Buffer
	buf := make([]byte, 7)
	for {
		n, err := s.Pull(buf)
		out.Write(buf[:n])
		if errors.Is(err, io.EOF) {
			return out.Bytes()
		}
		if err != nil {
			t.Fatalf("Pull() error = %v", err)
		}
	}
}

func TestOpen_Memory(t *testing.T) {
	t.Parallel()

	wav := audiotest.WAV(8000, 1, audiotest.Counter(10, 1))

	tests := []struct {
		name string
		desc Descriptor
		want audio.ContainerType
	}{
		{"sniffed", Memory(wav, audio.ContainerNone), audio.ContainerWAV},
		{"hint wins", Memory(wav, audio.ContainerMP3), audio.ContainerMP3},
		{"unknown", Memory([]byte("plain text"), audio.ContainerNone), audio.ContainerNone},
		{"empty", Memory([]byte{}, audio.ContainerNone), audio.ContainerNone},
	}

	var o Opener
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			src, ct, err := o.Open(context.Background(), tt.desc)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer src.Close()

			if ct != tt.want {
				t.Errorf("container = %v, want %v", ct, tt.want)
			}
			if got := pullAll(t, src); !bytes.Equal(got, tt.desc.Data) {
				t.Errorf("pulled %d bytes, want %d", len(got), len(tt.desc.Data))
			}
		})
	}
}

func TestOpen_File(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	wav := audiotest.WAV(8000, 1, audiotest.Counter(10, 1))

	named := filepath.Join(dir, "clip.mp3")
	bare := filepath.Join(dir, "clip")
	for _, p := range []string{named, bare} {
		if err := os.WriteFile(p, wav, 0o600); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}
	}

	tests := []struct {
		name string
		uri  string
		want audio.ContainerType
	}{
		{"extension before sniffing", named, audio.ContainerMP3},
		{"sniffed", bare, audio.ContainerWAV},
		{"file scheme", "file://" + bare, audio.ContainerWAV},
	}

	var o Opener
	for _, tt := range tests {
		src, ct, err := o.Open(context.Background(), File(tt.uri))
		if err != nil {
			t.Fatalf("%s: Open() error = %v", tt.name, err)
		}
		if ct != tt.want {
			t.Errorf("%s: container = %v, want %v", tt.name, ct, tt.want)
		}
		if got := pullAll(t, src); !bytes.Equal(got, wav) {
			t.Errorf("%s: pulled %d bytes, want %d", tt.name, len(got), len(wav))
		}
		src.Close()
	}
}

func TestOpen_HTTP(t *testing.T) {
	t.Parallel()

	wav := audiotest.WAV(8000, 1, audiotest.Counter(10, 1))

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/stream":
			w.Header().Set("Content-Type", "audio/flac")
			w.Write(wav)
		case "/song.wav":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Write(wav)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	o := Opener{Client: srv.Client(), UserAgent: "test-agent"}

	src, ct, err := o.Open(context.Background(), File(srv.URL+"/stream"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if ct != audio.ContainerFLAC {
		t.Errorf("container = %v, want %v from Content-Type", ct, audio.ContainerFLAC)
	}
	if got := pullAll(t, src); !bytes.Equal(got, wav) {
		t.Errorf("pulled %d bytes, want %d", len(got), len(wav))
	}
	src.Close()
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "test-agent")
	}

	src, ct, err = o.Open(context.Background(), File(srv.URL+"/song.wav?x=1"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	src.Close()
	if ct != audio.ContainerWAV {
		t.Errorf("container = %v, want %v from extension", ct, audio.ContainerWAV)
	}

	if _, _, err := o.Open(context.Background(), File(srv.URL+"/missing")); !errors.Is(err, ErrHTTPStatus) {
		t.Errorf("Open() error = %v, want %v", err, ErrHTTPStatus)
	}
}

func TestNewClient_BodyOutlivesTimeout(t *testing.T) {
	t.Parallel()

	chunk := bytes.Repeat([]byte{0x55}, 1024)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		for range 10 {
			w.Write(chunk)
			w.(http.Flusher).Flush()
			select {
			case <-time.After(30 * time.Millisecond):
			case <-r.Context().Done():
				return
			}
		}
	}))
	defer srv.Close()

	// the body takes about 300ms, six times the client timeout
	o := Opener{Client: NewClient(50 * time.Millisecond)}
	src, _, err := o.Open(context.Background(), File(srv.URL+"/live"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if got := pullAll(t, src); len(got) != 10*len(chunk) {
		t.Errorf("pulled %d bytes, want %d", len(got), 10*len(chunk))
	}
}

func TestNewClient_HeaderTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	o := Opener{Client: NewClient(50 * time.Millisecond)}
	start := time.Now()
	if _, _, err := o.Open(context.Background(), File(srv.URL+"/slow.wav")); err == nil {
		t.Fatal("Open() succeeded without response headers")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Open() returned after %v, want the header timeout", elapsed)
	}
}

func TestOpen_HTTPCancelUnblocksPull(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("RIFF"))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	o := Opener{Client: NewClient(time.Second)}
	src, _, err := o.Open(ctx, File(srv.URL+"/stall.wav"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	buf := make([]byte, 64)
	if n, err := src.Pull(buf); n != 4 || err != nil {
		t.Fatalf("Pull() = %d, %v, want 4 bytes", n, err)
	}

	time.AfterFunc(20*time.Millisecond, cancel)
	done := make(chan error, 1)
	go func() {
		_, err := src.Pull(buf)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Pull() after cancel error = nil")
		}
	case <-time.After(time.Second):
		t.Fatal("Pull() still blocked after cancel")
	}
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()

	var o Opener
	tests := []struct {
		name string
		desc Descriptor
		want error
	}{
		{"empty", Descriptor{}, ErrEmptyDescriptor},
		{"scheme", File("ftp://example.com/a.wav"), ErrUnsupportedScheme},
		{"missing file", File(filepath.Join(t.TempDir(), "nope.wav")), os.ErrNotExist},
	}

	for _, tt := range tests {
		if _, _, err := o.Open(context.Background(), tt.desc); !errors.Is(err, tt.want) {
			t.Errorf("%s: Open() error = %v, want %v", tt.name, err, tt.want)
		}
	}
}
