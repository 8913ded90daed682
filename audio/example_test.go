// SPDX-License-Identifier: EPL-2.0

package audio_test

import (
	"fmt"

	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/internal/audiotest"
)

// Example_resampler converts one second of 8 kHz mono into 16 kHz stereo.
func Example_resampler() {
	in := audiotest.Constant(8000, 1, 1000)

	r := audio.NewResampler()
	info := audio.StreamInfo{Channels: 1, BitsPerSample: 16, SampleRate: 8000}
	if err := r.Configure(info, 16000, 2); err != nil {
		fmt.Println("configure:", err)
		return
	}

	out := make([]int16, 4096)
	total := 0
	for len(in) > 0 {
		consumed, produced := r.Process(in, out)
		in = in[consumed:]
		total += produced
	}
	for {
		produced, done := r.Flush(out)
		total += produced
		if done {
			break
		}
	}

	fmt.Printf("ratio: %.1f\n", r.Ratio())
	fmt.Printf("frames: %d\n", total/2)
	// Output:
	// ratio: 0.5
	// frames: 16000
}

// Example_registry shows how codecs are looked up per container.
func Example_registry() {
	registry := audio.NewRegistry()
	registry.Register(audio.ContainerWAV, func() audio.Codec { return nil })

	_, ok := registry.Get(audio.ContainerWAV)
	fmt.Println("wav registered:", ok)

	_, err := registry.New(audio.ContainerMP3)
	fmt.Println(err)
	// Output:
	// wav registered: true
	// no codec registered for container: mp3
}

// Example_containerDetection shows the detection helpers used by sources.
func Example_containerDetection() {
	fmt.Println(audio.ContainerFromPath("https://example.com/news.mp3?x=1"))
	fmt.Println(audio.ContainerFromMIME("audio/flac"))
	fmt.Println(audio.SniffContainer([]byte("RIFF\x00\x00\x00\x00WAVE")))
	// Output:
	// mp3
	// flac
	// wav
}
