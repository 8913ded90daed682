// SPDX-License-Identifier: EPL-2.0

package stage

// Buffers sizes the ring buffers and working buffers of the pipeline
// stages, in bytes.
type Buffers struct {
	Raw       int // reader output, decoder input
	Decoded   int // decoder output
	Resampled int // resampler output
	Chunk     int // working buffer of one step
}

// DefaultBuffers returns the sizes used when nothing is configured.
func DefaultBuffers() Buffers {
	return Buffers{
		Raw:       65536,
		Decoded:   65536,
		Resampled: 32768,
		Chunk:     8192,
	}
}

func (b Buffers) withDefaults() Buffers {
	d := DefaultBuffers()
	if b.Raw <= 0 {
		b.Raw = d.Raw
	}
	if b.Decoded <= 0 {
		b.Decoded = d.Decoded
	}
	if b.Resampled <= 0 {
		b.Resampled = d.Resampled
	}
	if b.Chunk <= 0 {
		b.Chunk = d.Chunk
	}
	// whole stereo 16-bit frames
	b.Chunk &^= 3
	if b.Chunk == 0 {
		b.Chunk = 4
	}

	return b
}
