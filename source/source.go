// SPDX-License-Identifier: EPL-2.0

package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ik5/duckpipe/audio"
)

const (
	// DefaultTimeout bounds connecting and waiting for response headers
	// when no client is supplied. The body is never bounded.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent is sent with HTTP requests.
	DefaultUserAgent = "duckpipe/1.0"

	peekSize = 4096
)

// Descriptor names the raw bytes of one playback session. Data takes
// precedence over URI. Container is an optional format hint.
type Descriptor struct {
	URI       string
	Data      []byte
	Container audio.ContainerType
}

func (d Descriptor) String() string {
	if d.Data != nil {
		return fmt.Sprintf("mem:%d bytes", len(d.Data))
	}

	return d.URI
}

// File returns a descriptor for a local path or URI.
func File(uri string) Descriptor {
	return Descriptor{URI: uri}
}

// Memory returns a descriptor for an in-memory buffer.
func Memory(data []byte, hint audio.ContainerType) Descriptor {
	return Descriptor{Data: data, Container: hint}
}

// Source yields raw container bytes. Pull may return fewer bytes than
// requested; it returns io.EOF once the source is exhausted.
type Source interface {
	Pull(p []byte) (int, error)
	Close() error
}

var defaultClient = NewClient(DefaultTimeout)

// NewClient returns an HTTP client for streaming sources. timeout limits
// dialing, the TLS handshake and the wait for response headers only; a
// body may take as long as playback does and is ended by cancelling the
// request context.
func NewClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = dialer.DialContext
	tr.TLSHandshakeTimeout = timeout
	tr.ResponseHeaderTimeout = timeout

	return &http.Client{Transport: tr}
}

// Opener opens descriptors. The zero value is usable.
type Opener struct {
	Client    *http.Client
	UserAgent string
}

// Open opens d and determines its container type: the hint first, then the
// HTTP Content-Type, then the extension, then the leading magic bytes.
func (o *Opener) Open(ctx context.Context, d Descriptor) (Source, audio.ContainerType, error) {
	var (
		rc   io.ReadCloser
		mime string
		name string
	)

	switch {
	case d.Data != nil:
		rc = io.NopCloser(bytes.NewReader(d.Data))
	case d.URI == "":
		return nil, audio.ContainerNone, ErrEmptyDescriptor
	default:
		u, err := url.Parse(d.URI)
		if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
			// bare path, possibly with a drive letter
			f, err := os.Open(d.URI)
			if err != nil {
				return nil, audio.ContainerNone, fmt.Errorf("%w", err)
			}
			rc, name = f, d.URI
			break
		}

		switch strings.ToLower(u.Scheme) {
		case "file":
			f, err := os.Open(u.Path)
			if err != nil {
				return nil, audio.ContainerNone, fmt.Errorf("%w", err)
			}
			rc, name = f, u.Path
		case "http", "https":
			resp, err := o.get(ctx, u)
			if err != nil {
				return nil, audio.ContainerNone, err
			}
			rc, name, mime = resp.Body, u.Path, resp.Header.Get("Content-Type")
		default:
			return nil, audio.ContainerNone, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
		}
	}

	src := &readerSource{r: bufio.NewReaderSize(rc, peekSize), c: rc}

	ct := d.Container
	if ct == audio.ContainerNone && mime != "" {
		ct = audio.ContainerFromMIME(mime)
	}
	if ct == audio.ContainerNone && name != "" {
		ct = audio.ContainerFromPath(name)
	}
	if ct == audio.ContainerNone {
		head, err := src.r.Peek(audio.SniffLen)
		if err != nil && !errors.Is(err, io.EOF) {
			src.Close()
			return nil, audio.ContainerNone, fmt.Errorf("%w", err)
		}
		ct = audio.SniffContainer(head)
	}

	return src, ct, nil
}

func (o *Opener) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	ua := o.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	client := o.Client
	if client == nil {
		client = defaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	return resp, nil
}

type readerSource struct {
	r *bufio.Reader
	c io.Closer
}

func (s *readerSource) Pull(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *readerSource) Close() error {
	return s.c.Close()
}
