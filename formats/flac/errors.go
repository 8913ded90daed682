// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	// ErrUnsupportedBitDepth indicates a sample size outside 4..32 bits
	ErrUnsupportedBitDepth = errors.New("unsupported FLAC bit depth")

	// ErrChannelMismatch indicates a frame whose channel count differs from the stream info
	ErrChannelMismatch = errors.New("FLAC frame channel count mismatch")
)
