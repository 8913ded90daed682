// SPDX-License-Identifier: EPL-2.0

// Package duckpipe is a streaming audio player core for devices that play
// media and spoken announcements through one output.
//
// Two pipelines, one for media and one for announcements, each run a
// Reader, a Decoder and a Resampler stage. A Mixer combines their output,
// ducking the media under announcements and scaling it where the sum would
// clip. A Speaker stage plays the mix into an output sink.
//
//	source -> Reader -> Decoder -> Resampler --\
//	                                            Mixer -> Speaker -> sink
//	source -> Reader -> Decoder -> Resampler --/
//
// Every stage is an independent goroutine with a bounded command queue and
// a bounded event queue, and stages hand audio to each other through ring
// buffers.
//
// # Supported Formats
//
//   - WAV (PCM 16-bit) via formats/wav
//   - MP3 via formats/mp3
//   - FLAC via formats/flac
//   - Ogg Vorbis via formats/vorbis
//   - AIFF via formats/aiff
//
// NewRegistry returns a registry holding all of them.
//
// # Quick Start
//
// Play media with an announcement over it into a WAV file:
//
//	info := audio.StreamInfo{Channels: 2, BitsPerSample: 16, SampleRate: 16000}
//	sink, _ := output.CreateWAV("mix.wav", info)
//	defer sink.Close()
//
//	p, _ := player.New(player.Options{
//	    Sink:     output.NewPaced(sink, info, 0, nil),
//	    Registry: duckpipe.NewRegistry(),
//	    AutoDuck: true,
//	})
//	go p.Run(ctx)
//
//	p.PlayMedia(ctx, source.File("music.mp3"))
//	p.Announce(ctx, source.File("https://example.com/doorbell.wav"))
//	p.WaitDrained(ctx)
//
// # One-shot conversion
//
// Transcode decodes and resamples a complete file without any goroutines,
// and Probe reports the container and format of a file:
//
//	samples, in, err := duckpipe.Transcode(reg, data, audio.ContainerNone, 16000, 2)
//	ct, info, err := duckpipe.Probe(reg, data, audio.ContainerNone)
//
// # Package Structure
//
//   - audio: stream formats, codec contracts, container detection, resampling filter
//   - formats/*: codecs
//   - ringbuf: the byte ring buffer between stages
//   - task: events, commands, error taxonomy and the shared stage runner
//   - source: memory, file and HTTP sources
//   - stage: Reader, Decoder and Resampler workers
//   - pipeline: three stages plus the transfer task
//   - mixer: the Mixer worker and its ducking curve
//   - output: sinks, volume and the Speaker worker
//   - player: the controller
package duckpipe
