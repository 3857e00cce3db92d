package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/velvetcoast/aurora/internal/engine"
)

func monoConfig() Config {
	cfg := DefaultConfig()
	cfg.Channels = 1
	cfg.QueueCapacity = 8
	return cfg
}

// newTestPipeline returns a mono pipeline with a frozen clock the test can
// advance through the returned setter.
func newTestPipeline(t *testing.T, cfg Config) (*Pipeline, func(time.Time)) {
	t.Helper()
	p := New(nil, "alpha", engine.StyleEmbedding{1}, cfg)
	base := time.Unix(1000, 0)
	current := base
	p.now = func() time.Time { return current }
	return p, func(at time.Time) { current = at }
}

func enqueue(t *testing.T, p *Pipeline, chunk []int16) {
	t.Helper()
	if err := p.queue.put(context.Background(), chunk, time.Second); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
}

func rampChunk(n int) []int16 {
	chunk := make([]int16, n)
	for i := range chunk {
		chunk[i] = int16(i)
	}
	return chunk
}

func flatChunk(n int, v int16) []int16 {
	chunk := make([]int16, n)
	for i := range chunk {
		chunk[i] = v
	}
	return chunk
}

// --- NORMAL state ---

func TestNormalFrameSlicing(t *testing.T) {
	// One 4800-sample mono chunk must yield exactly five in-order 960-sample
	// frames, then not-ready.
	p, _ := newTestPipeline(t, monoConfig())
	enqueue(t, p, rampChunk(4800))

	for f := 0; f < 5; f++ {
		frame, ok := p.NextFrame()
		if !ok {
			t.Fatalf("Frame %d: not ready, want ready", f+1)
		}
		if len(frame) != 960 {
			t.Fatalf("Frame %d: %d samples, want 960", f+1, len(frame))
		}
		if frame[0] != int16(f*960) || frame[959] != int16(f*960+959) {
			t.Errorf("Frame %d: spans [%d..%d], want [%d..%d]",
				f+1, frame[0], frame[959], f*960, f*960+959)
		}
	}

	if _, ok := p.NextFrame(); ok {
		t.Error("Sixth frame request should report not ready")
	}
}

func TestNormalNotReadyOnEmptyQueue(t *testing.T) {
	p, _ := newTestPipeline(t, monoConfig())
	if _, ok := p.NextFrame(); ok {
		t.Error("NextFrame on empty pipeline should report not ready")
	}
}

func TestNormalNeverEmitsShortFrame(t *testing.T) {
	p, _ := newTestPipeline(t, monoConfig())
	enqueue(t, p, rampChunk(500))
	if _, ok := p.NextFrame(); ok {
		t.Error("Partial backlog must defer, not emit a short frame")
	}

	// Second chunk completes the frame.
	enqueue(t, p, rampChunk(500))
	frame, ok := p.NextFrame()
	if !ok {
		t.Fatal("Frame should be ready after second chunk")
	}
	if frame[499] != 499 || frame[500] != 0 {
		t.Errorf("Chunk boundary at [499,500] = [%d,%d], want [499,0]", frame[499], frame[500])
	}
}

func TestFramesSpanChunkBoundaries(t *testing.T) {
	// Three chunks of 640 samples = two full frames, no reordering or loss.
	p, _ := newTestPipeline(t, monoConfig())
	for c := 0; c < 3; c++ {
		chunk := make([]int16, 640)
		for i := range chunk {
			chunk[i] = int16(c*640 + i)
		}
		enqueue(t, p, chunk)
	}

	for f := 0; f < 2; f++ {
		frame, ok := p.NextFrame()
		if !ok {
			t.Fatalf("Frame %d not ready", f+1)
		}
		for i, v := range frame {
			if v != int16(f*960+i) {
				t.Fatalf("Frame %d sample[%d] = %d, want %d", f+1, i, v, f*960+i)
			}
		}
	}
}

// --- SwitchStyle ---

func TestSwitchStyleCapturesBacklogAndQueue(t *testing.T) {
	p, _ := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 100))
	enqueue(t, p, flatChunk(960, 200))
	p.NextFrame() // pull first chunk through the backlog path
	enqueue(t, p, flatChunk(960, 300))

	if !p.SwitchStyle("beta", engine.StyleEmbedding{2}) {
		t.Fatal("SwitchStyle to a new style should arm a transition")
	}

	st := p.Status()
	if st.TransitionState != "transitioning" {
		t.Errorf("State = %s, want transitioning", st.TransitionState)
	}
	if st.ActiveStyle != "beta" {
		t.Errorf("ActiveStyle = %s, want beta", st.ActiveStyle)
	}
	if st.ReservoirFrames != 2 {
		t.Errorf("ReservoirFrames = %d, want 2 (queued chunks seized)", st.ReservoirFrames)
	}
	if st.BacklogFrames != 0 {
		t.Errorf("BacklogFrames = %d, want 0 (cleared for the new style)", st.BacklogFrames)
	}
	if st.QueueDepth != 0 {
		t.Errorf("QueueDepth = %d, want 0 (drained into reservoir)", st.QueueDepth)
	}
}

func TestSwitchStyleIdempotent(t *testing.T) {
	p, _ := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 100))

	if p.SwitchStyle("alpha", engine.StyleEmbedding{1}) {
		t.Error("Requesting the active style must be a no-op")
	}
	st := p.Status()
	if st.TransitionState != "normal" {
		t.Errorf("State = %s after no-op request, want normal", st.TransitionState)
	}
	if st.QueueDepth != 1 {
		t.Errorf("QueueDepth = %d, want 1 (no reservoir capture)", st.QueueDepth)
	}
}

// --- TRANSITIONING state ---

func TestTransitionStartEqualsOldAudio(t *testing.T) {
	p, setNow := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 1000))

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	enqueue(t, p, flatChunk(960, 2000))

	frame, ok := p.NextFrame()
	if !ok {
		t.Fatal("Transition frame should be ready")
	}
	for i, v := range frame {
		if v != 1000 {
			t.Fatalf("At elapsed=0 sample[%d] = %d, want 1000 (pure old style)", i, v)
		}
	}
}

func TestTransitionMidpointMix(t *testing.T) {
	p, setNow := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 1000))

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	enqueue(t, p, flatChunk(960, 3000))

	setNow(t0.Add(p.TransitionDuration() / 2))
	frame, ok := p.NextFrame()
	if !ok {
		t.Fatal("Transition frame should be ready")
	}
	// smoothstep(0.5) = 0.5: even blend
	for i, v := range frame {
		if v != 2000 {
			t.Fatalf("Midpoint sample[%d] = %d, want 2000", i, v)
		}
	}
}

func TestTransitionReservoirExhaustionGoesSilent(t *testing.T) {
	// Reservoir empty at arm time: old side degrades to silence, mixing
	// continues with pure new-style audio scaled by the fade-in gain.
	p, setNow := newTestPipeline(t, monoConfig())

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	enqueue(t, p, flatChunk(960, 10000))

	setNow(t0.Add(p.TransitionDuration() / 2))
	frame, ok := p.NextFrame()
	if !ok {
		t.Fatal("Transition frame should be ready")
	}
	for i, v := range frame {
		if v != 5000 {
			t.Fatalf("Silent-old midpoint sample[%d] = %d, want 5000", i, v)
		}
	}
}

func TestTransitionTerminates(t *testing.T) {
	p, setNow := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 1000))

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	enqueue(t, p, flatChunk(1920, 2000))

	setNow(t0.Add(p.TransitionDuration()))
	if _, ok := p.NextFrame(); ok {
		t.Error("The call that observes elapsed >= duration must report not ready")
	}

	st := p.Status()
	if st.TransitionState != "normal" {
		t.Errorf("State = %s after expiry, want normal", st.TransitionState)
	}
	if st.ReservoirFrames != 0 {
		t.Errorf("ReservoirFrames = %d after expiry, want 0 (leftover discarded)", st.ReservoirFrames)
	}

	// The next call proceeds under NORMAL with unmixed new-style audio.
	frame, ok := p.NextFrame()
	if !ok {
		t.Fatal("Frame should be ready after transition end")
	}
	if frame[0] != 2000 {
		t.Errorf("Post-transition sample = %d, want 2000", frame[0])
	}
}

func TestTransitionHoldsReservoirWhenNewNotReady(t *testing.T) {
	p, setNow := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 1000))

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	// No new-style audio yet.

	setNow(t0.Add(time.Second))
	if _, ok := p.NextFrame(); ok {
		t.Fatal("Without new-style audio the transition frame must defer")
	}
	if st := p.Status(); st.ReservoirFrames != 1 {
		t.Errorf("ReservoirFrames = %d, want 1 (old stream must not advance alone)", st.ReservoirFrames)
	}
}

func TestReentrantTransition(t *testing.T) {
	// Requesting style C while transitioning A->B abandons the A reservoir
	// and starts a fresh transition with B's audio as the outgoing side.
	p, setNow := newTestPipeline(t, monoConfig())
	enqueue(t, p, flatChunk(960, 1000)) // style A audio

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	enqueue(t, p, flatChunk(1920, 2000)) // style B audio

	setNow(t0.Add(time.Second))
	p.NextFrame() // consume one mixed frame; B audio now sits in the backlog

	t1 := t0.Add(2 * time.Second)
	setNow(t1)
	if !p.SwitchStyle("gamma", engine.StyleEmbedding{3}) {
		t.Fatal("Re-entrant switch should arm")
	}

	st := p.Status()
	if st.ActiveStyle != "gamma" {
		t.Errorf("ActiveStyle = %s, want gamma", st.ActiveStyle)
	}
	if st.TransitionState != "transitioning" {
		t.Errorf("State = %s, want transitioning", st.TransitionState)
	}
	if st.TransitionElapsed != 0 {
		t.Errorf("TransitionElapsed = %v, want 0 (fresh descriptor)", st.TransitionElapsed)
	}
	if st.ReservoirFrames != 1 {
		t.Errorf("ReservoirFrames = %d, want 1 (B's remaining backlog)", st.ReservoirFrames)
	}

	// The new outgoing audio is B's, not A's.
	enqueue(t, p, flatChunk(960, 4000))
	frame, ok := p.NextFrame()
	if !ok {
		t.Fatal("Transition frame should be ready")
	}
	if frame[0] != 2000 {
		t.Errorf("Outgoing sample = %d, want 2000 (style B)", frame[0])
	}
}

// --- Status ---

func TestStatusSnapshot(t *testing.T) {
	p, setNow := newTestPipeline(t, monoConfig())
	st := p.Status()
	if st.ActiveStyle != "alpha" || st.TransitionState != "normal" {
		t.Errorf("Initial status = %+v", st)
	}
	if st.TransitionElapsed != 0 {
		t.Errorf("TransitionElapsed = %v in normal state, want 0", st.TransitionElapsed)
	}

	t0 := time.Unix(2000, 0)
	setNow(t0)
	p.SwitchStyle("beta", engine.StyleEmbedding{2})
	setNow(t0.Add(3 * time.Second))
	if got := p.Status().TransitionElapsed; got != 3*time.Second {
		t.Errorf("TransitionElapsed = %v, want 3s", got)
	}
}

// --- Generator integration ---

func TestGeneratorFeedsAssembler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels = 2
	cfg.FadeDuration = 10 * time.Millisecond

	synth := engine.NewSynth(100*time.Millisecond, 2)
	emb, err := synth.EmbedStyle(context.Background(), "ambient")
	if err != nil {
		t.Fatalf("EmbedStyle: %v", err)
	}
	p := New(synth, "ambient", emb, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- p.RunGenerator(ctx) }()

	deadline := time.After(5 * time.Second)
	for {
		if frame, ok := p.NextFrame(); ok {
			if len(frame) != 1920 {
				t.Errorf("Frame has %d samples, want 1920 (stereo)", len(frame))
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("Generator produced no consumable audio in time")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunGenerator returned %v on cancellation, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Generator did not stop after cancellation")
	}
}
