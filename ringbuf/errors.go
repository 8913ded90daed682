// SPDX-License-Identifier: EPL-2.0

package ringbuf

import "errors"

var (
	// ErrInvalidCapacity is returned when a buffer is requested with a
	// non-positive capacity.
	ErrInvalidCapacity = errors.New("ring buffer capacity must be positive")
)
