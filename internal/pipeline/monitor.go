package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/velvetcoast/aurora/internal/engine"
)

// Embedder is the slice of the engine the monitor needs.
type Embedder interface {
	EmbedStyle(ctx context.Context, label string) (engine.StyleEmbedding, error)
}

// DescribeFunc optionally expands a bare style label into a richer prompt
// before embedding. Returns empty string to fall back to the label itself.
type DescribeFunc func(ctx context.Context, label string) string

// Monitor watches for style-change requests and arms transitions. Requests
// arrive by Request (HTTP API, auto-DJ) or through a watched request file;
// the monitor consumes the latest pending one on a fixed short interval.
type Monitor struct {
	pipeline *Pipeline
	embedder Embedder
	interval time.Duration

	mu       sync.Mutex
	pending  string
	hasReq   bool
	describe DescribeFunc
}

// NewMonitor creates a style monitor polling at the given interval.
func NewMonitor(p *Pipeline, embedder Embedder, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Monitor{pipeline: p, embedder: embedder, interval: interval}
}

// SetDescribeFunc installs an optional prompt enricher (LLM-backed).
func (m *Monitor) SetDescribeFunc(fn DescribeFunc) {
	m.mu.Lock()
	m.describe = fn
	m.mu.Unlock()
}

// Request records a desired style. The latest request wins; duplicates of
// the active style are dropped when consumed.
func (m *Monitor) Request(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	m.mu.Lock()
	m.pending = label
	m.hasReq = true
	m.mu.Unlock()
}

// Run polls for pending requests until ctx is cancelled. Style resolution
// failures are logged and dropped; nothing here is fatal.
func (m *Monitor) Run(ctx context.Context) error {
	log.Info("style monitor started", "interval", m.interval)
	defer log.Info("style monitor stopped")

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			label, ok := m.takePending()
			if !ok {
				continue
			}
			m.handle(ctx, label)
		}
	}
}

func (m *Monitor) takePending() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasReq {
		return "", false
	}
	m.hasReq = false
	return m.pending, true
}

func (m *Monitor) handle(ctx context.Context, label string) {
	if label == m.pipeline.ActiveStyle() {
		return
	}

	prompt := label
	m.mu.Lock()
	describe := m.describe
	m.mu.Unlock()
	if describe != nil {
		if d := describe(ctx, label); d != "" {
			prompt = d
		}
	}

	style, err := m.embedder.EmbedStyle(ctx, prompt)
	if err != nil {
		log.Error("style embed failed, keeping current style", "style", label, "err", err)
		return
	}

	m.pipeline.SwitchStyle(label, style)
}

// WatchFile feeds requests from a side-channel file: every write replaces
// the pending request. Lines may carry a "SMOOTH:genre" prefix from older
// DJ clients; only the trailing segment counts.
func (m *Monitor) WatchFile(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("style file watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and DJs replace the file atomically.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	log.Info("watching style request file", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name != path || !ev.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			label := strings.TrimSpace(string(data))
			if i := strings.LastIndex(label, ":"); i >= 0 {
				label = label[i+1:]
			}
			m.Request(label)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("style file watcher", "err", err)
		}
	}
}
