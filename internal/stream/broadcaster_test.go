package stream

import (
	"context"
	"testing"
	"time"

	"github.com/velvetcoast/aurora/internal/audio"
)

func TestBroadcasterSubscribeUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	if b.ListenerCount() != 0 {
		t.Errorf("ListenerCount = %d, want 0", b.ListenerCount())
	}

	l1 := b.Subscribe()
	l2 := b.Subscribe()
	if b.ListenerCount() != 2 {
		t.Errorf("ListenerCount = %d, want 2", b.ListenerCount())
	}

	b.Unsubscribe(l1)
	if b.ListenerCount() != 1 {
		t.Errorf("ListenerCount = %d, want 1", b.ListenerCount())
	}

	select {
	case <-l1.done:
	default:
		t.Error("Unsubscribe should close the listener's done channel")
	}
	b.Unsubscribe(l2)
}

func TestBroadcasterPublishDelivers(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	frame := []int16{1, 2, 3, 4}
	b.Publish(frame)

	select {
	case got := <-l.C:
		if len(got) != 4 || got[0] != 1 {
			t.Errorf("Received %v, want %v", got, frame)
		}
	default:
		t.Error("Frame was not delivered")
	}
}

func TestBroadcasterDropsForSlowListener(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	// Never read from l.C; publishing past the buffer must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			b.Publish([]int16{int16(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Publish blocked on a slow listener")
	}
	if got := len(l.C); got != 150 {
		t.Errorf("Buffered %d frames, want 150 (rest dropped)", got)
	}
}

func TestBroadcastSinkPublishesFrames(t *testing.T) {
	b := NewBroadcaster()
	l := b.Subscribe()
	defer b.Unsubscribe(l)

	sink := NewBroadcastSink(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := sink.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	frame := audio.SamplesToBytes([]int16{100, -100, 200, -200})
	n, err := sink.Write(frame)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(frame) {
		t.Errorf("Write returned %d, want %d", n, len(frame))
	}

	select {
	case got := <-l.C:
		if len(got) != 4 || got[0] != 100 || got[1] != -100 {
			t.Errorf("Received %v", got)
		}
	case <-time.After(time.Second):
		t.Error("Frame was not published")
	}

	if err := sink.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestBroadcastSinkWriteFailsAfterCancel(t *testing.T) {
	sink := NewBroadcastSink(NewBroadcaster())
	ctx, cancel := context.WithCancel(context.Background())
	sink.Open(ctx)
	cancel()

	// First token may already be available; the second wait must observe the
	// cancelled context.
	sink.Write(audio.SamplesToBytes([]int16{1}))
	if _, err := sink.Write(audio.SamplesToBytes([]int16{1})); err == nil {
		t.Error("Write should fail once the context is cancelled")
	}
}
