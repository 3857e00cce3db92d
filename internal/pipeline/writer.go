package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/velvetcoast/aurora/internal/audio"
)

// Sink is the byte-oriented transport the writer drains frames into.
// Open may block until a peer is ready to receive.
type Sink interface {
	Open(ctx context.Context) error
	Write(p []byte) (int, error)
	Close() error
}

// MultiSink tees frames into several sinks: every frame goes to every sink,
// so the slowest sink paces the writer. Any sink failure is a transport
// failure for the whole pipeline.
func MultiSink(sinks ...Sink) Sink {
	if len(sinks) == 1 {
		return sinks[0]
	}
	return &multiSink{sinks: sinks}
}

type multiSink struct {
	sinks []Sink
}

func (m *multiSink) Open(ctx context.Context) error {
	for _, s := range m.sinks {
		if err := s.Open(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink) Write(p []byte) (int, error) {
	for _, s := range m.sinks {
		if _, err := s.Write(p); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (m *multiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Writer drains assembled frames into a sink at whatever cadence the sink
// accepts them. A write failure is fatal to the whole pipeline; there is no
// reconnect policy.
type Writer struct {
	pipeline *Pipeline
	sink     Sink
	idle     time.Duration
}

// NewWriter creates a transport writer.
func NewWriter(p *Pipeline, sink Sink) *Writer {
	return &Writer{pipeline: p, sink: sink, idle: 10 * time.Millisecond}
}

// Run opens the sink once, then loops pulling frames. Not-ready responses
// back off for a short idle interval. Returns nil on cancellation, an error
// on sink failure.
func (w *Writer) Run(ctx context.Context) error {
	if err := w.sink.Open(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("open sink: %w", err)
	}
	defer w.sink.Close()

	log.Info("transport writer started")
	defer log.Info("transport writer stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, ok := w.pipeline.NextFrame()
		if !ok {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.idle):
			}
			continue
		}

		if _, err := w.sink.Write(audio.SamplesToBytes(frame)); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport write: %w", err)
		}
	}
}
