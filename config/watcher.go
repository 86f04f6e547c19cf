package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/c360studio/reqgraph/scoring"
)

// defaultDebounce is how long the watcher waits for further writes
// before reloading. Editors that save via rename emit several events
// per change.
const defaultDebounce = 500 * time.Millisecond

// Watcher reloads the configuration file when it changes and swaps the
// scoring policy atomically. Readers calling Policy see either the old
// or the new policy, never a partial one. A reload that fails to parse
// or validate keeps the previous policy.
type Watcher struct {
	path     string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration

	policy atomic.Pointer[scoring.Policy]

	pendingMu sync.Mutex
	pending   bool

	onReload func(*Config)
}

// WatcherOption adjusts watcher construction.
type WatcherOption func(*Watcher)

// WithDebounce overrides the delay between a file event and the reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithReloadHook registers a callback invoked with each successfully
// reloaded config, after the policy swap.
func WithReloadHook(fn func(*Config)) WatcherOption {
	return func(w *Watcher) { w.onReload = fn }
}

// NewWatcher creates a watcher over the given config file, seeded with
// the initial policy.
func NewWatcher(path string, initial scoring.Policy, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		path:     path,
		logger:   logger,
		watcher:  fsw,
		debounce: defaultDebounce,
	}
	w.policy.Store(&initial)
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Policy returns the currently active scoring policy.
func (w *Watcher) Policy() scoring.Policy {
	return *w.policy.Load()
}

// Start begins watching the config file for changes.
func (w *Watcher) Start(ctx context.Context) error {
	// Watch the directory, not the file: saves that replace the file
	// via rename would otherwise drop the watch.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("Config watcher started",
		slog.String("path", w.path),
		slog.Duration("debounce", w.debounce))
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", slog.String("error", err.Error()))

		case <-ticker.C:
			w.flushPending()
		}
	}
}

func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != filepath.Clean(w.path) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()
}

func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	dirty := w.pending
	w.pending = false
	w.pendingMu.Unlock()
	if dirty {
		w.reload()
	}
}

// reload re-reads the config file and swaps the active policy. Errors
// leave the previous policy in place.
func (w *Watcher) reload() {
	cfg, err := LoadFromFile(w.path)
	if err != nil {
		w.logger.Warn("Config reload failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	if err := cfg.Validate(); err != nil {
		w.logger.Warn("Reloaded config is invalid, keeping previous policy",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}

	policy := cfg.Scoring.Policy
	w.policy.Store(&policy)
	w.logger.Info("Scoring policy reloaded", slog.String("path", w.path))

	if w.onReload != nil {
		w.onReload(cfg)
	}
}
