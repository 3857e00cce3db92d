package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"time"

	"github.com/velvetcoast/aurora/internal/audio"
)

// Synth is a deterministic offline engine for development and tests. It maps
// a style label to a fundamental frequency plus harmonic weights and renders
// additive sine chunks, threading oscillator phase through the continuation
// state so consecutive chunks line up.
type Synth struct {
	chunkFrames int
	channels    int
}

// synthState carries oscillator time across Generate calls.
type synthState struct {
	t float64
}

// NewSynth creates a synth engine producing chunks of the given duration.
func NewSynth(chunkDuration time.Duration, channels int) *Synth {
	return &Synth{
		chunkFrames: int(chunkDuration.Seconds() * audio.SampleRate),
		channels:    channels,
	}
}

// EmbedStyle derives a deterministic embedding from the label text:
// [fundamental Hz, harmonic 1..4 amplitudes]. Empty labels are rejected.
func (s *Synth) EmbedStyle(_ context.Context, label string) (StyleEmbedding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, fmt.Errorf("embed style: empty label")
	}

	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(label)))
	sum := h.Sum64()

	// Fundamental between 110Hz and 440Hz, harmonics rolling off.
	freq := 110.0 + float64(sum%331)
	emb := StyleEmbedding{float32(freq)}
	for i := 1; i <= 4; i++ {
		sum = sum*6364136223846793005 + 1442695040888963407
		amp := 0.5 / float64(i+1) * float64(sum%100) / 100.0
		emb = append(emb, float32(amp))
	}
	return emb, nil
}

// Generate renders one additive-synthesis chunk. The seed adds a slow,
// deterministic vibrato so successive chunks are not identical.
func (s *Synth) Generate(_ context.Context, state State, style StyleEmbedding, seed int) ([]float32, State, error) {
	if len(style) == 0 {
		return nil, nil, fmt.Errorf("generate: nil style embedding")
	}

	var t float64
	if state != nil {
		prev, ok := state.(*synthState)
		if !ok {
			return nil, nil, fmt.Errorf("generate: continuation state is not a synth state")
		}
		t = prev.t
	}

	freq := float64(style[0])
	vibrato := 0.5 + float64(seed%7)*0.1

	dt := 1.0 / audio.SampleRate
	samples := make([]float32, s.chunkFrames*s.channels)
	for i := 0; i < s.chunkFrames; i++ {
		f := freq + 2.0*math.Sin(2*math.Pi*vibrato*t)
		sample := 0.4 * math.Sin(2*math.Pi*f*t)
		for h := 1; h < len(style); h++ {
			sample += float64(style[h]) * 0.4 * math.Sin(2*math.Pi*f*float64(h+1)*t)
		}
		for c := 0; c < s.channels; c++ {
			samples[i*s.channels+c] = float32(sample)
		}
		t += dt
	}

	return samples, &synthState{t: t}, nil
}
