// SPDX-License-Identifier: EPL-2.0

package output

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
)

const wavFormatPCM = 1

// WAVFile encodes the stream into a 16-bit PCM WAV file. The header is
// finalized by Close, so the writer must be seekable.
type WAVFile struct {
	enc    *wav.Encoder
	closer io.Closer
	info   audio.StreamInfo
	limit  int

	samples []int16
	buf     *goaudio.IntBuffer
}

// CreateWAV creates (or truncates) path and returns a sink writing to it.
func CreateWAV(path string, info audio.StreamInfo) (*WAVFile, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	w := NewWAV(f, info)
	w.closer = f

	return w, nil
}

// NewWAV returns a sink encoding to ws. Close does not close ws.
func NewWAV(ws io.WriteSeeker, info audio.StreamInfo) *WAVFile {
	return &WAVFile{
		enc:   wav.NewEncoder(ws, info.SampleRate, 16, info.Channels, wavFormatPCM),
		info:  info,
		limit: DefaultRawBytes - DefaultRawBytes%info.BytesPerFrame(),
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: info.Channels, SampleRate: info.SampleRate},
			SourceBitDepth: 16,
		},
	}
}

// Write encodes whole samples; a trailing odd byte is not accepted.
func (w *WAVFile) Write(p []byte) (int, error) {
	n := min(len(p), w.limit)
	n -= n % pcm.BytesPerSample
	if n == 0 {
		return 0, nil
	}

	count := n / pcm.BytesPerSample
	if cap(w.samples) < count {
		w.samples = make([]int16, count)
		w.buf.Data = make([]int, count)
	}
	pcm.Decode(w.samples[:count], p[:n])

	w.buf.Data = w.buf.Data[:count]
	for i, v := range w.samples[:count] {
		w.buf.Data[i] = int(v)
	}

	if err := w.enc.Write(w.buf); err != nil {
		return 0, fmt.Errorf("%w", err)
	}

	return n, nil
}

func (w *WAVFile) FreeBytes() int { return w.limit }

// Info returns the format of the file.
func (w *WAVFile) Info() audio.StreamInfo { return w.info }

// Close writes the final header sizes and closes the file when the sink
// created it.
func (w *WAVFile) Close() error {
	err := w.enc.Close()
	if w.closer != nil {
		if cerr := w.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}
