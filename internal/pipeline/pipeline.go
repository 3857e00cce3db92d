package pipeline

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/velvetcoast/aurora/internal/audio"
	"github.com/velvetcoast/aurora/internal/engine"
)

// TransitionState is the frame assembler's mode.
type TransitionState int

const (
	StateNormal TransitionState = iota
	StateTransitioning
)

func (s TransitionState) String() string {
	if s == StateTransitioning {
		return "transitioning"
	}
	return "normal"
}

// Config holds pipeline tuning knobs.
type Config struct {
	Channels           int           // 1 or 2
	TransitionDuration time.Duration // style crossfade length
	FadeDuration       time.Duration // intra-chunk fade window
	QueueCapacity      int           // chunks buffered between generator and assembler
	EnqueueTimeout     time.Duration // how long the generator waits on a full queue
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Channels:           audio.Channels,
		TransitionDuration: 8 * time.Second,
		FadeDuration:       40 * time.Millisecond,
		QueueCapacity:      5,
		EnqueueTimeout:     5 * time.Second,
	}
}

// Pipeline is the shared heart of the stream: one lock guards the backlog,
// the fade-out reservoir, the active style, the intra-chunk fader, and the
// transition descriptor. Workers only touch that state through its methods.
type Pipeline struct {
	eng          engine.Engine
	cfg          Config
	frameSamples int
	queue        *chunkQueue

	mu              sync.Mutex
	backlog         []int16 // unconsumed audio for the active style
	reservoir       []int16 // audio of the superseded style, drained during a transition
	style           engine.StyleEmbedding
	styleLabel      string
	fader           *ChunkFader
	state           TransitionState
	transitionStart time.Time
	transitionDur   time.Duration

	now func() time.Time
}

// Status is a read-only snapshot for monitoring.
type Status struct {
	ActiveStyle       string        `json:"active_style"`
	TransitionState   string        `json:"transition_state"`
	TransitionElapsed time.Duration `json:"transition_elapsed"`
	BacklogFrames     int           `json:"backlog_frames"`
	ReservoirFrames   int           `json:"reservoir_frames"`
	QueueDepth        int           `json:"queue_depth"`
}

// New creates a pipeline with the given active style already embedded.
func New(eng engine.Engine, label string, style engine.StyleEmbedding, cfg Config) *Pipeline {
	if cfg.Channels == 0 {
		cfg.Channels = audio.Channels
	}
	fadeFrames := int(cfg.FadeDuration.Seconds() * audio.SampleRate)
	if fadeFrames < 1 {
		fadeFrames = 1
	}
	return &Pipeline{
		eng:          eng,
		cfg:          cfg,
		frameSamples: audio.FrameSize * cfg.Channels,
		queue:        newChunkQueue(cfg.QueueCapacity),
		style:        style,
		styleLabel:   label,
		fader:        NewChunkFader(fadeFrames, cfg.Channels),
		now:          time.Now,
	}
}

// ActiveStyle returns the label of the style currently driving generation.
func (p *Pipeline) ActiveStyle() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.styleLabel
}

// SwitchStyle atomically makes the new style active: swaps the embedding,
// resets the intra-chunk fader, seizes all buffered old-style audio (backlog
// plus anything still queued) into the fade-out reservoir, clears the
// backlog, and arms the transition. A request for the already-active style
// is a no-op. Arming during an active transition abandons the old reservoir
// and starts fresh from current state.
func (p *Pipeline) SwitchStyle(label string, style engine.StyleEmbedding) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if label == p.styleLabel {
		return false
	}

	log.Info("style change", "from", p.styleLabel, "to", label)

	p.style = style
	p.styleLabel = label
	p.fader.Reset()

	captured := p.backlog
	for {
		chunk, ok := p.queue.tryGet()
		if !ok {
			break
		}
		captured = append(captured, chunk...)
	}
	p.reservoir = captured
	p.backlog = nil

	p.state = StateTransitioning
	p.transitionStart = p.now()
	p.transitionDur = p.cfg.TransitionDuration
	return true
}

// SetTransitionDuration updates the crossfade length for future transitions.
func (p *Pipeline) SetTransitionDuration(d time.Duration) {
	p.mu.Lock()
	p.cfg.TransitionDuration = d
	p.mu.Unlock()
}

// TransitionDuration returns the configured crossfade length.
func (p *Pipeline) TransitionDuration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg.TransitionDuration
}

// Status returns a snapshot of the pipeline state.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	var elapsed time.Duration
	if p.state == StateTransitioning {
		elapsed = p.now().Sub(p.transitionStart)
	}
	return Status{
		ActiveStyle:       p.styleLabel,
		TransitionState:   p.state.String(),
		TransitionElapsed: elapsed,
		BacklogFrames:     len(p.backlog) / p.frameSamples,
		ReservoirFrames:   len(p.reservoir) / p.frameSamples,
		QueueDepth:        p.queue.depth(),
	}
}

// activeEmbedding is read by the generator on every iteration.
func (p *Pipeline) activeEmbedding() engine.StyleEmbedding {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.style
}

// applyFade runs the stateful intra-chunk fade. The fader belongs to the
// shared critical section because SwitchStyle resets it.
func (p *Pipeline) applyFade(chunk []float32) []float32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fader.Apply(chunk)
}
