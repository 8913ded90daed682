// SPDX-License-Identifier: EPL-2.0

package duckpipe

import (
	"errors"
	"fmt"
	"time"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/pcm"
	"github.com/ik5/duckpipe/task"
)

const (
	transcodeChunk = 8192
	idleWait       = time.Millisecond
)

// ErrTooManyRetries is returned when a codec keeps failing recoverably.
var ErrTooManyRetries = errors.New("too many retryable decode failures")

// Transcode decodes a complete in-memory file and converts it to rate and
// channels. hint may be audio.ContainerNone to sniff the container. It
// returns the interleaved samples and the format of the input.
//
// Transcode runs the same codecs and resampling filter as a pipeline, but
// synchronously on the calling goroutine.
//
//	samples, in, err := duckpipe.Transcode(duckpipe.NewRegistry(), data, audio.ContainerNone, 16000, 2)
func Transcode(reg *audio.Registry, data []byte, hint audio.ContainerType, rate, channels int) ([]int16, audio.StreamInfo, error) {
	codec, _, err := open(reg, data, hint)
	if err != nil {
		return nil, audio.StreamInfo{}, err
	}
	defer codec.Close()

	var (
		filter  = audio.NewResampler()
		in      audio.StreamInfo
		pending []int16
		scratch = make([]int16, transcodeChunk)
		out     = make([]int16, 0, rate*channels)
	)

	err = decode(codec, data, func(info audio.StreamInfo, chunk []byte) (bool, error) {
		if in == (audio.StreamInfo{}) {
			in = info
			if err := filter.Configure(info, rate, channels); err != nil {
				return false, fmt.Errorf("%w: %w", audio.ErrUnsupportedFormat, err)
			}
		}

		start := len(pending)
		pending = append(pending, make([]int16, len(chunk)/pcm.BytesPerSample)...)
		pcm.Decode(pending[start:], chunk)

		for {
			consumed, produced := filter.Process(pending, scratch)
			out = append(out, scratch[:produced]...)
			pending = pending[:copy(pending, pending[consumed:])]
			if consumed == 0 && produced == 0 {
				return true, nil
			}
		}
	})
	if err != nil {
		return nil, in, err
	}
	if in == (audio.StreamInfo{}) {
		return nil, in, fmt.Errorf("%w: no audio", audio.ErrUnsupportedFormat)
	}

	for {
		n, done := filter.Flush(scratch)
		out = append(out, scratch[:n]...)
		if done {
			return out, in, nil
		}
	}
}

// Probe returns the container of data and the format of its audio. Only
// as much is decoded as needed to learn the format.
func Probe(reg *audio.Registry, data []byte, hint audio.ContainerType) (audio.ContainerType, audio.StreamInfo, error) {
	codec, ct, err := open(reg, data, hint)
	if err != nil {
		return ct, audio.StreamInfo{}, err
	}
	defer codec.Close()

	var info audio.StreamInfo
	err = decode(codec, data, func(si audio.StreamInfo, _ []byte) (bool, error) {
		info = si
		return false, nil
	})
	if err == nil && info == (audio.StreamInfo{}) {
		info, _ = codec.StreamInfo()
	}
	if err == nil && info == (audio.StreamInfo{}) {
		err = fmt.Errorf("%w: no audio", audio.ErrUnsupportedFormat)
	}

	return ct, info, err
}

func open(reg *audio.Registry, data []byte, hint audio.ContainerType) (audio.Codec, audio.ContainerType, error) {
	ct := hint
	if ct == audio.ContainerNone {
		ct = audio.SniffContainer(data)
	}
	if ct == audio.ContainerNone {
		return nil, ct, fmt.Errorf("%w: unknown container", audio.ErrUnsupportedFormat)
	}

	codec, err := reg.New(ct)
	if err != nil {
		return nil, ct, err
	}

	return codec, ct, nil
}

// decode feeds all of data to codec and hands every batch of PCM to emit
// until the stream ends or emit returns false.
func decode(codec audio.Codec, data []byte, emit func(audio.StreamInfo, []byte) (bool, error)) error {
	out := make([]byte, transcodeChunk)
	retries := 0

	for {
		consumed, produced, status, err := codec.Decode(data, out, true)
		data = data[consumed:]

		if produced > 0 {
			info, _ := codec.StreamInfo()
			more, err := emit(info, out[:produced])
			if err != nil || !more {
				return err
			}
		}

		switch status {
		case audio.DecodeEndOfStream:
			return nil
		case audio.DecodeFatal:
			if err == nil {
				err = audio.ErrUnsupportedFormat
			}
			return fmt.Errorf("decode: %w", err)
		case audio.DecodeRetryable:
			if retries++; retries > task.MaxRetries {
				return fmt.Errorf("%w: %w", ErrTooManyRetries, err)
			}
			time.Sleep(idleWait)
		case audio.DecodeIdle:
			retries = 0
			time.Sleep(idleWait)
		default:
			retries = 0
		}
	}
}
