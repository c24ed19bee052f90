package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hyperjump/radar/internal/config"
	"go.uber.org/zap"
)

func TestWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.yaml")
	if err := writeFile(target, "debug: false\n"); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var changed []string
	w := NewWatcher([]string{target}, func(path string) {
		mu.Lock()
		changed = append(changed, path)
		mu.Unlock()
	}, WithDebounce(100*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	for i := 0; i < 3; i++ {
		if err := writeFile(target, "debug: true\n"); err != nil {
			t.Fatal(err)
		}
	}
	// other files in the directory are ignored
	if err := writeFile(filepath.Join(dir, "other.yaml"), "x"); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(changed) > 0
	})
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(changed) != 1 {
		t.Errorf("expected one debounced change, got %v", changed)
	}
	if filepath.Base(changed[0]) != "config.yaml" {
		t.Errorf("changed path: got %s", changed[0])
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{filepath.Join(dir, "c.yaml")}, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}

func TestWatcher_StartFailsForMissingDirectory(t *testing.T) {
	w := NewWatcher([]string{filepath.Join(t.TempDir(), "missing", "c.yaml")}, nil)
	if err := w.Start(context.Background()); err == nil {
		w.Stop()
		t.Fatal("expected error for a missing parent directory")
	}
}

func TestWatcher_Files(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{filepath.Join(dir, "b.yaml"), filepath.Join(dir, "a.yaml")}, nil)
	files := w.Files()
	if len(files) != 2 || filepath.Base(files[0]) != "a.yaml" {
		t.Errorf("Files() = %v", files)
	}
}

func TestConfigWatcher_AppliesReloadedPipeline(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := writeFile(path, "pipeline:\n  score_threshold: 4.5\n"); err != nil {
		t.Fatal(err)
	}

	got := make(chan config.PipelineConfig, 4)
	w := NewConfigWatcher(path, func(cfg *config.Config) { got <- cfg.Pipeline }, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(path, "pipeline:\n  score_threshold: 3.5\n  v2_window_months: 2\n"); err != nil {
		t.Fatal(err)
	}
	select {
	case p := <-got:
		if p.ScoreThreshold != 3.5 || p.V2WindowMonths != 2 {
			t.Errorf("reloaded pipeline: got %+v", p)
		}
		if p.BatchSize != 5 {
			t.Errorf("defaults not applied: batch size %d", p.BatchSize)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("config change not applied")
	}
}

func TestConfigWatcher_IgnoresBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := writeFile(path, "debug: false\n"); err != nil {
		t.Fatal(err)
	}

	applied := make(chan struct{}, 1)
	w := NewConfigWatcher(path, func(*config.Config) { applied <- struct{}{} }, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	if err := writeFile(path, "pipeline: [unclosed\n"); err != nil {
		t.Fatal(err)
	}
	select {
	case <-applied:
		t.Fatal("broken config must not be applied")
	case <-time.After(time.Second):
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
