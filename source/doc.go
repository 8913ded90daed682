// SPDX-License-Identifier: EPL-2.0

// Package source opens the raw bytes of a playback session: an in-memory
// buffer, a local file or an HTTP(S) stream.
//
//	var o source.Opener
//	src, container, err := o.Open(ctx, source.File("song.mp3"))
package source
