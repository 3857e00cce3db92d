package pipeline

import "math"

// ChunkFader removes boundary clicks between consecutive chunks of the same
// generation stream. Each chunk has a raised-cosine-squared ramp applied to
// its head with the previous chunk's withheld tail added in; its own tail is
// captured under the time-reversed ramp and withheld for the next call.
// Because ramp[i] + ramp[n-1-i] == 1, a continuous signal passes through
// unchanged once the first tail is primed.
type ChunkFader struct {
	fadeFrames int
	channels   int
	ramp       []float64 // per-frame weight, 0 -> 1
	tail       []float32 // withheld interleaved tail from the previous chunk
}

// NewChunkFader creates a fader with the given window length in frames
// (samples per channel).
func NewChunkFader(fadeFrames, channels int) *ChunkFader {
	f := &ChunkFader{
		fadeFrames: fadeFrames,
		channels:   channels,
		ramp:       make([]float64, fadeFrames),
		tail:       make([]float32, fadeFrames*channels),
	}
	denom := float64(fadeFrames - 1)
	if denom <= 0 {
		denom = 1
	}
	for i := range f.ramp {
		s := math.Sin(math.Pi / 2 * float64(i) / denom)
		f.ramp[i] = s * s
	}
	return f
}

// Apply fades the chunk head against the stored tail and withholds the new
// tail. The returned slice is the chunk minus its trailing fade window.
// Chunks no longer than the fade window pass through untouched.
func (f *ChunkFader) Apply(chunk []float32) []float32 {
	window := f.fadeFrames * f.channels
	if len(chunk) <= window {
		return chunk
	}

	for i := 0; i < f.fadeFrames; i++ {
		w := float32(f.ramp[i])
		for c := 0; c < f.channels; c++ {
			idx := i*f.channels + c
			chunk[idx] = chunk[idx]*w + f.tail[idx]
		}
	}

	base := len(chunk) - window
	for i := 0; i < f.fadeFrames; i++ {
		w := float32(f.ramp[f.fadeFrames-1-i])
		for c := 0; c < f.channels; c++ {
			f.tail[i*f.channels+c] = chunk[base+i*f.channels+c] * w
		}
	}

	return chunk[:base]
}

// Reset clears the stored tail. Called when a style switch begins so the new
// stream is not faded against stale audio from the old one.
func (f *ChunkFader) Reset() {
	for i := range f.tail {
		f.tail[i] = 0
	}
}
