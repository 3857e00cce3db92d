package engine

import "context"

// StyleEmbedding is an opaque numeric descriptor steering generation toward
// a style. Produced by EmbedStyle, consumed by Generate, never inspected.
type StyleEmbedding []float32

// State is the opaque continuation value that threads generation continuity
// from one chunk to the next. A nil State starts a fresh stream. Callers only
// move it forward; its contents belong to the engine implementation.
type State any

// Engine produces fixed-length blocks of interleaved float audio.
// Implementations must be deterministic given identical inputs.
type Engine interface {
	// EmbedStyle computes the embedding for a free-text style label.
	// Fails for labels the engine cannot interpret.
	EmbedStyle(ctx context.Context, label string) (StyleEmbedding, error)

	// Generate returns the next chunk of interleaved float samples in
	// [-1, 1] plus the continuation state for the following call.
	Generate(ctx context.Context, state State, style StyleEmbedding, seed int) ([]float32, State, error)
}
