// SPDX-License-Identifier: EPL-2.0

// Command duckpipe plays a media source and an announcement through the
// ducking mixer and writes the result to a WAV file or stdout. It also
// converts and probes files with the same codecs.
//
//	duckpipe play --media music.mp3 --announce doorbell.wav --announce-at 2s
//	duckpipe convert song.flac song.wav --rate 16000 --channels 2
//	duckpipe probe *.wav
//	duckpipe formats
//	duckpipe config
package main
