package stream

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
)

// PipeSink writes raw s16le frames into a named pipe (FIFO). Opening blocks
// until a reader attaches, so playback starts exactly when a consumer is
// ready. The pipe's own buffering provides backpressure pacing.
type PipeSink struct {
	path string
	f    *os.File
}

// NewPipeSink creates a sink for the FIFO at path. The FIFO must already
// exist (mkfifo is the peer's responsibility).
func NewPipeSink(path string) *PipeSink {
	return &PipeSink{path: path}
}

// Open blocks until a reader opens the other end of the pipe.
func (s *PipeSink) Open(ctx context.Context) error {
	log.Info("waiting for pipe reader", "path", s.path)

	type result struct {
		f   *os.File
		err error
	}
	ch := make(chan result, 1)
	go func() {
		f, err := os.OpenFile(s.path, os.O_WRONLY, 0)
		ch <- result{f, err}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("open pipe %s: %w", s.path, r.err)
		}
		s.f = r.f
		log.Info("pipe reader attached", "path", s.path)
		return nil
	}
}

func (s *PipeSink) Write(p []byte) (int, error) {
	return s.f.Write(p)
}

func (s *PipeSink) Close() error {
	if s.f == nil {
		return nil
	}
	return s.f.Close()
}
