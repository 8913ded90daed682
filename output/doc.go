// SPDX-License-Identifier: EPL-2.0

// Package output holds the audio output side of a player: sinks, software
// volume and the Speaker stage that moves mixed PCM into a sink.
//
// # Sinks
//
//   - WAVFile: a 16-bit PCM WAV file, header finalized on Close
//   - Raw: s16le PCM on any io.Writer; NewWAVStream prefixes a WAV header
//   - Capture: in-memory, for tests and tools
//   - Paced: wraps another sink and accepts data no faster than real time
//
// A Streamer exposes a mixer's output as a beep.Streamer for playback on
// a sound card through beep's speaker package.
//
// # Volume
//
// Volume levels run from 0 to 1 on a decibel curve:
//
//	gain = 10^((1-level) * MinVolumeDB / 20)
//
// with level 0 mapped to silence. Mute forces the gain to 0 without
// touching the level.
package output
