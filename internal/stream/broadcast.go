package stream

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/velvetcoast/aurora/internal/audio"
)

// BroadcastSink adapts the broadcaster to the pipeline's transport sink: it
// paces raw s16le frames at real-time cadence (one frame per 20ms) and fans
// them out to all subscribed listeners. The limiter is what turns the
// writer's pull loop into a steady clock.
type BroadcastSink struct {
	broadcaster *Broadcaster
	limiter     *rate.Limiter
	ctx         context.Context
}

// NewBroadcastSink creates a paced broadcast sink.
func NewBroadcastSink(b *Broadcaster) *BroadcastSink {
	return &BroadcastSink{broadcaster: b}
}

// Open is immediate: listeners attach and detach independently.
func (s *BroadcastSink) Open(ctx context.Context) error {
	s.ctx = ctx
	s.limiter = rate.NewLimiter(rate.Every(audio.FrameDuration), 1)
	return nil
}

// Write blocks until the next frame slot, then publishes.
func (s *BroadcastSink) Write(p []byte) (int, error) {
	if err := s.limiter.Wait(s.ctx); err != nil {
		return 0, err
	}
	s.broadcaster.Publish(audio.BytesToSamples(p))
	return len(p), nil
}

func (s *BroadcastSink) Close() error {
	return nil
}
