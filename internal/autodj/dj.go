package autodj

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// RequestFunc submits a style-change request to the pipeline's monitor.
type RequestFunc func(label string)

// Status is the current state of the auto-DJ.
type Status struct {
	Enabled        bool    `json:"enabled"`
	Current        string  `json:"current"`
	DwellRemaining float64 `json:"dwell_remaining"` // seconds
}

// DJ wanders the style graph: after a randomized dwell it requests an
// adjacent style. Manual style changes re-root the walk via Notice.
type DJ struct {
	request RequestFunc

	mu       sync.RWMutex
	enabled  bool
	current  string
	dwellEnd time.Time
	dwellMin int // seconds
	dwellMax int
}

// New creates an auto-DJ starting its walk at startingStyle.
func New(request RequestFunc, startingStyle string, dwellMin, dwellMax int) *DJ {
	return &DJ{
		request:  request,
		enabled:  true,
		current:  startingStyle,
		dwellMin: dwellMin,
		dwellMax: dwellMax,
	}
}

// SetEnabled turns automatic wandering on or off.
func (d *DJ) SetEnabled(enabled bool) {
	d.mu.Lock()
	d.enabled = enabled
	if enabled {
		d.resetDwell()
	}
	d.mu.Unlock()
	log.Info("auto-dj", "enabled", enabled)
}

// Notice re-roots the walk after an external style change and restarts the
// dwell timer. Styles outside the graph leave the walk position unchanged
// (the DJ resumes from its last known node when the dwell expires).
func (d *DJ) Notice(style string) {
	d.mu.Lock()
	if IsKnownStyle(style) {
		d.current = style
	}
	d.resetDwell()
	d.mu.Unlock()
}

// Status returns the current DJ state.
func (d *DJ) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	remaining := time.Until(d.dwellEnd).Seconds()
	if remaining < 0 {
		remaining = 0
	}
	return Status{
		Enabled:        d.enabled,
		Current:        d.current,
		DwellRemaining: remaining,
	}
}

// Run drives the walk until ctx is cancelled.
func (d *DJ) Run(ctx context.Context) error {
	d.mu.Lock()
	d.resetDwell()
	d.mu.Unlock()

	log.Info("auto-dj started", "style", d.Status().Current)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.step()
		}
	}
}

func (d *DJ) step() {
	d.mu.Lock()
	if !d.enabled || time.Now().Before(d.dwellEnd) {
		d.mu.Unlock()
		return
	}

	node, ok := StyleGraph[d.current]
	if !ok || len(node.Adjacent) == 0 {
		d.resetDwell()
		d.mu.Unlock()
		return
	}

	next := node.Adjacent[rand.Intn(len(node.Adjacent))]
	d.current = next
	d.resetDwell()
	d.mu.Unlock()

	log.Info("auto-dj transition", "to", next)
	d.request(next)
}

// resetDwell sets a new random dwell timer. Must be called with mu held.
func (d *DJ) resetDwell() {
	spread := d.dwellMax - d.dwellMin
	if spread <= 0 {
		spread = 1
	}
	dwell := d.dwellMin + rand.Intn(spread)
	d.dwellEnd = time.Now().Add(time.Duration(dwell) * time.Second)
}
