package stream

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/velvetcoast/aurora/internal/audio"
)

// SpeakerSink plays frames on the local audio device through oto. The oto
// player pulls s16le bytes from a pipe; writes block at playback pace, which
// is what paces the transport writer in local mode.
type SpeakerSink struct {
	channels int
	player   *oto.Player
	pr       *io.PipeReader
	pw       *io.PipeWriter
}

// NewSpeakerSink creates a local playback sink.
func NewSpeakerSink(channels int) *SpeakerSink {
	return &SpeakerSink{channels: channels}
}

// Open initializes the audio device and starts the pull loop.
func (s *SpeakerSink) Open(ctx context.Context) error {
	op := &oto.NewContextOptions{
		SampleRate:   audio.SampleRate,
		ChannelCount: s.channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   100 * time.Millisecond,
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("open audio device: %w", err)
	}
	select {
	case <-ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.pr, s.pw = io.Pipe()
	s.player = otoCtx.NewPlayer(s.pr)
	s.player.Play()
	return nil
}

func (s *SpeakerSink) Write(p []byte) (int, error) {
	return s.pw.Write(p)
}

func (s *SpeakerSink) Close() error {
	if s.pw != nil {
		s.pw.Close()
	}
	if s.player != nil {
		return s.player.Close()
	}
	return nil
}
