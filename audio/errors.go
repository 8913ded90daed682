// SPDX-License-Identifier: EPL-2.0

package audio

import "errors"

var (
	// ErrUnsupportedFormat is returned for streams the pipeline cannot carry.
	ErrUnsupportedFormat = errors.New("unsupported stream format")

	// ErrNoCodec is returned when no codec is registered for a container.
	ErrNoCodec = errors.New("no codec registered for container")

	// ErrCodecClosed is returned by a codec used after Close.
	ErrCodecClosed = errors.New("codec is closed")
)
