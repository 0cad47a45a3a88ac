package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldIgnore(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "hello", "_embed"), 0o755))
	roots := []string{root}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"content file", filepath.Join(root, "hello", "post.md"), false},
		{"partial template", filepath.Join(root, "_footer.html"), false},
		{"embed cache file", filepath.Join(root, "hello", "_embed", "twitter.json"), true},
		{"private directory", filepath.Join(root, "hello", "_embed"), true},
		{"dotfile", filepath.Join(root, ".DS_Store"), true},
		{"swap file", filepath.Join(root, "hello", ".post.md.swp"), true},
		{"backup file", filepath.Join(root, "hello", "post.md~"), true},
		{"emacs lock", filepath.Join(root, "#post.md#"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldIgnore(roots, tt.path))
		})
	}
}

func TestDebouncerCoalesces(t *testing.T) {
	requests := make(chan string, 1)
	d := newDebouncer(20*time.Millisecond, requests)
	for range 5 {
		d.trigger()
	}
	select {
	case reason := <-requests:
		assert.Equal(t, "change", reason)
	case <-time.After(time.Second):
		t.Fatal("debounced request never arrived")
	}
	select {
	case <-requests:
		t.Fatal("triggers were not coalesced")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestStopWorkerWaitsForBuild(t *testing.T) {
	requests := make(chan string, 1)
	started := make(chan struct{})
	var finished atomic.Bool
	build := func(ctx context.Context, _ string) error {
		close(started)
		<-ctx.Done()
		finished.Store(true)
		return ctx.Err()
	}

	stop := startWorker(context.Background(), requests, build, slog.Default())
	requests <- "change"
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("build never started")
	}
	stop()
	assert.True(t, finished.Load(), "stop returned while a build was still running")
}

func TestRunRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var builds atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{Dirs: []string{dir, filepath.Join(dir, "missing")}, Debounce: 20 * time.Millisecond},
			func(context.Context, string) error {
				builds.Add(1)
				return nil
			})
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(dir, "post.md"), []byte(time.Now().String()), 0o644)
		return builds.Load() > 0
	}, 5*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestRunEvery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reasons := make(chan string, 4)
	go func() {
		_ = Run(ctx, Options{Dirs: []string{t.TempDir()}, Every: 50 * time.Millisecond},
			func(_ context.Context, reason string) error {
				select {
				case reasons <- reason:
				default:
				}
				return nil
			})
	}()

	select {
	case reason := <-reasons:
		assert.Equal(t, "schedule", reason)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled rebuild never ran")
	}
}
