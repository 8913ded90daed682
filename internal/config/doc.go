// SPDX-License-Identifier: EPL-2.0

// Package config loads and validates duckpipe configuration.
//
// Settings are read from a TOML file over built-in defaults; a missing file
// is not an error. Durations are Go duration strings:
//
//	[ducking]
//	auto = true
//	ratio = 0.3
//	fade = "50ms"
//
// Sections: output, buffers, timing, ducking, volume, http and logging.
package config
