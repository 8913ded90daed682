// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"slices"
	"sync"
)

// StreamInfo describes the format of a PCM stream.
type StreamInfo struct {
	Channels      int
	BitsPerSample int
	SampleRate    int
}

// BytesPerFrame returns the size of one interleaved frame.
func (si StreamInfo) BytesPerFrame() int {
	return si.Channels * si.BitsPerSample / 8
}

// Validate reports whether the stream can flow through the pipeline:
// mono or stereo, 16-bit, positive rate.
func (si StreamInfo) Validate() error {
	if si.Channels < 1 || si.Channels > 2 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedFormat, si.Channels)
	}
	if si.BitsPerSample != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedFormat, si.BitsPerSample)
	}
	if si.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, si.SampleRate)
	}

	return nil
}

func (si StreamInfo) String() string {
	return fmt.Sprintf("%d Hz, %d ch, %d bit", si.SampleRate, si.Channels, si.BitsPerSample)
}

// DecodeStatus is the outcome of one Codec.Decode call.
type DecodeStatus int

const (
	// DecodeMore means the call made progress and more work may follow.
	DecodeMore DecodeStatus = iota
	// DecodeIdle means the codec needs more input before it can progress.
	DecodeIdle
	// DecodeRetryable is a recoverable failure; the caller tries again.
	DecodeRetryable
	// DecodeFatal means the stream cannot be decoded any further.
	DecodeFatal
	// DecodeEndOfStream means all PCM has been produced.
	DecodeEndOfStream
)

func (s DecodeStatus) String() string {
	switch s {
	case DecodeMore:
		return "more"
	case DecodeIdle:
		return "idle"
	case DecodeRetryable:
		return "retryable"
	case DecodeFatal:
		return "fatal"
	case DecodeEndOfStream:
		return "end-of-stream"
	}

	return fmt.Sprintf("DecodeStatus(%d)", int(s))
}

// Codec is a push-style container decoder. The caller owns both buffers:
// in holds raw container bytes, out receives 16-bit little-endian
// interleaved PCM. endOfInput tells the codec no bytes follow in.
//
// A codec does not have to consume all input on each call.
type Codec interface {
	Decode(in, out []byte, endOfInput bool) (consumed, produced int, status DecodeStatus, err error)
	// StreamInfo reports the output format once the header has been parsed.
	StreamInfo() (StreamInfo, bool)
	Close() error
}

// Source is a pull-style PCM stream produced by a Decoder.
type Source interface {
	// Info describes the PCM returned by ReadPCM.
	Info() StreamInfo
	// ReadPCM fills dst with interleaved 16-bit samples and returns how
	// many values it wrote. It returns io.EOF once the stream is finished.
	ReadPCM(dst []int16) (n int, err error)
	// Close releases any resources.
	Close() error
}

// Decoder constructs a Source from an input reader. The reader blocks until
// data is available, so Decode may be called on a stream that is still
// arriving.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// CodecFactory creates a fresh Codec for one playback session.
type CodecFactory func() Codec

// Registry maps container types to codec factories.
type Registry struct {
	codecs map[ContainerType]CodecFactory

	mtx *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{
		codecs: make(map[ContainerType]CodecFactory),
		mtx:    &sync.Mutex{},
	}
}

func (r *Registry) Register(ct ContainerType, f CodecFactory) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	r.codecs[ct] = f
}

func (r *Registry) Get(ct ContainerType) (CodecFactory, bool) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	f, ok := r.codecs[ct]
	return f, ok
}

// New starts a codec for ct.
func (r *Registry) New(ct ContainerType) (Codec, error) {
	f, ok := r.Get(ct)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCodec, ct)
	}

	return f(), nil
}

// Containers lists the registered container types in ascending order.
func (r *Registry) Containers() []ContainerType {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	out := make([]ContainerType, 0, len(r.codecs))
	for ct := range r.codecs {
		out = append(out, ct)
	}
	slices.Sort(out)

	return out
}
