// Package watch rebuilds a project whenever its sources change, and
// optionally on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/paths"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 500 * time.Millisecond

// BuildFunc runs one full build. reason says what triggered it.
type BuildFunc func(ctx context.Context, reason string) error

// Options configure Run.
type Options struct {
	// Dirs are watched recursively. Missing directories are skipped.
	Dirs     []string
	Debounce time.Duration
	// Every schedules an extra rebuild on a fixed interval when positive.
	Every  time.Duration
	Logger *slog.Logger
}

// Run watches opts.Dirs and calls build after every settled change until
// ctx is cancelled. Builds never overlap; changes arriving during a build
// cause exactly one more build. Build errors are logged, not returned.
func Run(ctx context.Context, opts Options, build BuildFunc) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	var roots []string
	for _, d := range opts.Dirs {
		abs, err := filepath.Abs(d)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", d, err)
		}
		if st, err := os.Stat(abs); err != nil || !st.IsDir() {
			continue
		}
		roots = append(roots, abs)
		addDirsRecursive(watcher, abs, logger)
	}

	requests := make(chan string, 1)
	trigger := newDebouncer(debounce, requests)
	defer trigger.stop()

	if opts.Every > 0 {
		s, err := schedule(opts.Every, requests)
		if err != nil {
			return err
		}
		s.Start()
		defer func() { _ = s.Shutdown() }()
		logger.Info("Periodic rebuild scheduled", slog.Duration("every", opts.Every))
	}

	stopWorker := startWorker(ctx, requests, build, logger)
	defer stopWorker()

	logger.Info("Watching for changes", logfields.Count(len(roots)))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			handleEvent(watcher, roots, ev, trigger, logger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// schedule returns a gocron scheduler that requests a rebuild every interval.
func schedule(every time.Duration, requests chan<- string) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { request(requests, "schedule") }),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return s, nil
}

func request(requests chan<- string, reason string) {
	select {
	case requests <- reason:
	default:
	}
}

// startWorker runs worker in the background. The returned stop cancels it
// and waits until it has returned.
func startWorker(ctx context.Context, requests <-chan string, build BuildFunc, logger *slog.Logger) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker(ctx, requests, build, logger)
	}()
	return func() {
		cancel()
		<-done
	}
}

// worker runs build for each request, coalescing requests that arrive
// while a build is running into one follow-up build.
func worker(ctx context.Context, requests <-chan string, build BuildFunc, logger *slog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-requests:
			start := time.Now()
			logger.Info("Rebuilding", slog.String("reason", reason))
			if err := build(ctx, reason); err != nil {
				logger.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			logger.Info("Rebuild finished", logfields.Duration(time.Since(start)))
		}
	}
}

// debouncer delays a request until no trigger arrived for delay.
type debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	delay    time.Duration
	requests chan<- string
}

func newDebouncer(delay time.Duration, requests chan<- string) *debouncer {
	return &debouncer{delay: delay, requests: requests}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() { request(d.requests, "change") })
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func handleEvent(w *fsnotify.Watcher, roots []string, ev fsnotify.Event, d *debouncer, logger *slog.Logger) {
	if shouldIgnore(roots, ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(w, ev.Name, logger)
		}
	}
	logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	d.trigger()
}

func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) {
	_ = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if p != root && paths.IsPrivate(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			logger.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// shouldIgnore skips dotfiles, editor temp files and anything inside a
// private directory, such as the embed cache the build itself writes.
// Private files like template partials still count.
func shouldIgnore(roots []string, name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if paths.IsPrivate(base) {
		if fi, err := os.Stat(name); err == nil && fi.IsDir() {
			return true
		}
	}
	for _, root := range roots {
		rel, err := filepath.Rel(root, name)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return paths.IsPrivatePath(filepath.Dir(rel))
	}
	return false
}
