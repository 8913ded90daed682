// SPDX-License-Identifier: EPL-2.0

// Package stage implements the workers of a playback pipeline: Reader,
// Decoder and Resampler. Each one is driven by a task.Stage and owns the
// ring buffers it writes to; the pipeline's transfer task moves bytes from
// one worker's Read to the next worker's Write.
//
//	reader -> decoder -> resampler -> mixer input
//
// Ring buffers are allocated on the first START and reset, never freed,
// when a session stops.
package stage
