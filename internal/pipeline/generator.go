package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/velvetcoast/aurora/internal/audio"
	"github.com/velvetcoast/aurora/internal/engine"
)

// RunGenerator is the chunk generator worker. It reads the active style,
// calls the engine with a monotonically increasing seed, fades, quantizes,
// and enqueues. It is unaware of transitions: the monitor swaps the style
// under it and it simply produces audio for whatever is active.
//
// Returns nil on cancellation. An engine error is fatal and is returned so
// the caller can tear down the whole pipeline: there is no fallback audio
// source.
func (p *Pipeline) RunGenerator(ctx context.Context) error {
	log.Info("chunk generator started")
	defer log.Info("chunk generator stopped")

	var state engine.State
	for seed := 1; ; seed++ {
		if ctx.Err() != nil {
			return nil
		}

		style := p.activeEmbedding()
		raw, next, err := p.eng.Generate(ctx, state, style, seed)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("generation engine: %w", err)
		}
		state = next

		faded := p.applyFade(raw)
		if len(faded) == 0 {
			continue
		}
		chunk := audio.Quantize(faded)

		if err := p.queue.put(ctx, chunk, p.cfg.EnqueueTimeout); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// Queue stayed full for the whole timeout: the consumer is far
			// behind, so this chunk is dropped and generation continues.
			log.Warn("chunk queue full, dropping chunk", "seed", seed)
		}
	}
}
