// SPDX-License-Identifier: EPL-2.0

// Package player is the controller of a two-stream player. It owns a media
// and an announcement pipeline sharing one mixer, plus a speaker stage that
// plays the mix into an output.Sink.
//
//	p, err := player.New(player.Options{Sink: sink, Registry: reg, AutoDuck: true})
//	go p.Run(ctx)
//	p.PlayMedia(ctx, source.File("music.mp3"))
//	p.Announce(ctx, source.File("doorbell.wav"))
//
// Commands are queued to the controller loop, which also polls every
// event queue once per tick and publishes a Status snapshot. The state is
// ANNOUNCING while the announcement pipeline runs, PAUSED or PLAYING while
// the media pipeline runs, and IDLE otherwise.
//
// With AutoDuck, media is faded to DuckRatio when an announcement starts
// and back to full level when it stops.
package player
