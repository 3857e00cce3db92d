package pipeline

import (
	"github.com/charmbracelet/log"
	"github.com/velvetcoast/aurora/internal/audio"
)

// NextFrame produces one fixed-size frame, or ok=false when not enough audio
// is available right now. It never blocks; callers retry after a short idle.
func (p *Pipeline) NextFrame() ([]int16, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateTransitioning {
		return p.transitionFrameLocked()
	}
	return p.normalFrameLocked()
}

func (p *Pipeline) normalFrameLocked() ([]int16, bool) {
	if !p.refillLocked() {
		return nil, false
	}
	return p.popBacklogLocked(), true
}

// transitionFrameLocked mixes one old-style frame against one new-style
// frame. The reservoir substitutes silence once exhausted; that is expected,
// not an error. When elapsed reaches the duration the transition ends and
// this call reports not-ready so the next one proceeds under NORMAL.
func (p *Pipeline) transitionFrameLocked() ([]int16, bool) {
	elapsed := p.now().Sub(p.transitionStart)
	if elapsed >= p.transitionDur {
		log.Info("transition complete", "style", p.styleLabel)
		p.state = StateNormal
		p.reservoir = nil
		return nil, false
	}

	// New-style audio must be available before either stream is consumed,
	// so old and new stay time-aligned frame-for-frame.
	if !p.refillLocked() {
		return nil, false
	}

	old := make([]int16, p.frameSamples)
	n := copy(old, p.reservoir)
	p.reservoir = p.reservoir[n:]
	incoming := p.popBacklogLocked()

	progress := elapsed.Seconds() / p.transitionDur.Seconds()
	return audio.CrossfadeFrames(old, incoming, progress), true
}

// refillLocked tops the backlog up to a full frame from the chunk queue
// without blocking. Reports false when the queue has nothing left.
func (p *Pipeline) refillLocked() bool {
	for len(p.backlog) < p.frameSamples {
		chunk, ok := p.queue.tryGet()
		if !ok {
			return false
		}
		p.backlog = append(p.backlog, chunk...)
	}
	return true
}

func (p *Pipeline) popBacklogLocked() []int16 {
	frame := make([]int16, p.frameSamples)
	copy(frame, p.backlog[:p.frameSamples])
	p.backlog = p.backlog[p.frameSamples:]
	return frame
}
