package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	SiteFlags `embed:""`

	Every    time.Duration `help:"Also rebuild on this interval, e.g. 1h (0 disables)" default:"0"`
	Debounce time.Duration `help:"Quiet period before a change triggers a rebuild" default:"500ms"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, root)
}

func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	p, err := openProject(g, root, w.SiteFlags, metrics.NoopRecorder{})
	if err != nil {
		return err
	}
	if err := p.Build(ctx, nil); err != nil {
		// Keep watching so the next save can fix it.
		slog.Error("Initial build failed", "error", err)
	}

	dirs := []string{
		p.InputDir(),
		filepath.Join(p.Dir(), "template"),
		filepath.Join(p.Dir(), "assets"),
		filepath.Join(p.Dir(), "themes"),
	}
	slog.Info("Watching for changes", "dirs", dirs, "every", w.Every)
	err = watch.Run(ctx, watch.Options{
		Dirs:     dirs,
		Debounce: w.Debounce,
		Every:    w.Every,
		Logger:   p.Logger(),
	}, func(ctx context.Context, reason string) error {
		slog.Info("Rebuilding", "reason", reason)
		return p.Rebuild(ctx)
	})
	if ctx.Err() != nil {
		slog.Info("Watch stopped")
		return nil
	}
	return err
}
