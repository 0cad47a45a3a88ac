package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"regexp"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	SiteFlags `embed:""`

	Filter      string `short:"f" help:"Only write output paths matching this regular expression; keeps the output directory and skips feeds and sitemaps"`
	MetricsFile string `name:"metrics-file" help:"Write build metrics in Prometheus textfile format to this path" type:"path"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return b.run(ctx, g, root)
}

func (b *BuildCmd) run(ctx context.Context, g *Global, root *CLI) error {
	filter, err := compileFilter(b.Filter)
	if err != nil {
		return err
	}

	var rec metrics.Recorder = metrics.NoopRecorder{}
	var pr *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		pr = metrics.NewPrometheusRecorder(prom.NewRegistry())
		rec = pr
	}

	p, err := openProject(g, root, b.SiteFlags, rec)
	if err != nil {
		return err
	}
	buildErr := p.Build(ctx, filter)

	// Metrics are written for failed builds too.
	if pr != nil {
		if err := pr.WriteTextfile(b.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics file", "path", b.MetricsFile, "error", err)
		} else {
			slog.Debug("Metrics written", "path", b.MetricsFile)
		}
	}
	return buildErr
}

func compileFilter(expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, fmt.Sprintf("invalid --filter %q", expr)).Build()
	}
	return re, nil
}
