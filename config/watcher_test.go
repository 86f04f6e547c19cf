package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/c360studio/reqgraph/scoring"
)

func writeConfig(t *testing.T, path string, cfg *Config) {
	t.Helper()
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}
}

func TestWatcherReload(t *testing.T) {
	t.Run("valid change swaps the policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reqgraph.yaml")
		writeConfig(t, path, DefaultConfig())

		w, err := NewWatcher(path, scoring.DefaultPolicy(), nil)
		if err != nil {
			t.Fatalf("NewWatcher: %v", err)
		}
		defer w.Stop()

		next := DefaultConfig()
		next.Scoring.Policy.HighPriority = 500
		writeConfig(t, path, next)

		w.reload()
		if got := w.Policy().HighPriority; got != 500 {
			t.Errorf("HighPriority = %d, want 500 after reload", got)
		}
	})

	t.Run("invalid change keeps the previous policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reqgraph.yaml")
		writeConfig(t, path, DefaultConfig())

		w, err := NewWatcher(path, scoring.DefaultPolicy(), nil)
		if err != nil {
			t.Fatalf("NewWatcher: %v", err)
		}
		defer w.Stop()

		bad := DefaultConfig()
		bad.Scoring.Policy.NumericRatio = 0.5
		writeConfig(t, path, bad)

		w.reload()
		if got := w.Policy().NumericRatio; got != 2.0 {
			t.Errorf("NumericRatio = %v, want previous 2.0 after failed reload", got)
		}
	})

	t.Run("unparseable file keeps the previous policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "reqgraph.yaml")
		if err := os.WriteFile(path, []byte(":not yaml ["), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		w, err := NewWatcher(path, scoring.DefaultPolicy(), nil)
		if err != nil {
			t.Fatalf("NewWatcher: %v", err)
		}
		defer w.Stop()

		w.reload()
		if got := w.Policy().HighPriority; got != scoring.DefaultPolicy().HighPriority {
			t.Errorf("HighPriority = %d, want untouched default", got)
		}
	})
}

func TestWatcherObservesFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reqgraph.yaml")
	writeConfig(t, path, DefaultConfig())

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(path, scoring.DefaultPolicy(), nil,
		WithDebounce(10*time.Millisecond),
		WithReloadHook(func(c *Config) {
			select {
			case reloaded <- c:
			default:
			}
		}))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	next := DefaultConfig()
	next.Scoring.Policy.HighPriority = 350
	writeConfig(t, path, next)

	select {
	case cfg := <-reloaded:
		if cfg.Scoring.Policy.HighPriority != 350 {
			t.Errorf("reloaded HighPriority = %d, want 350", cfg.Scoring.Policy.HighPriority)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher never observed the change")
	}

	if got := w.Policy().HighPriority; got != 350 {
		t.Errorf("Policy().HighPriority = %d, want 350", got)
	}
}
