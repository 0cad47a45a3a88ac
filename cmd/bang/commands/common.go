// Package commands implements the bang command line.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/plugins"
	"git.home.luguber.info/inful/bang/internal/project"
)

// Global is shared state handed to every command.
type Global struct {
	Logger *slog.Logger
	// Out receives command output; nil means stdout.
	Out io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Dir     string           `short:"C" name:"dir" help:"Project directory" default:"." type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Build the site once"`
	Watch   WatchCmd   `cmd:"" help:"Build, then rebuild whenever sources change"`
	Plugins PluginsCmd `cmd:"" help:"List the built-in plugins"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// SiteFlags are the project overrides shared by build and watch.
type SiteFlags struct {
	Host   string `help:"Override the site host"`
	Scheme string `help:"Override the URL scheme (empty for protocol-relative URLs)"`
	Output string `short:"o" help:"Output directory (default <dir>/output)" type:"path"`
}

func (f SiteFlags) overrides() map[string]any {
	o := map[string]any{}
	if f.Host != "" {
		o["host"] = f.Host
	}
	if f.Scheme != "" {
		o["scheme"] = f.Scheme
	}
	return o
}

// openProject loads the project at root.Dir with every built-in plugin
// available.
func openProject(g *Global, root *CLI, flags SiteFlags, rec metrics.Recorder) (*project.Project, error) {
	logger := slog.Default()
	if g != nil && g.Logger != nil {
		logger = g.Logger
	}
	return project.New(project.Options{
		Dir:       root.Dir,
		OutputDir: flags.Output,
		Overrides: flags.overrides(),
		Plugins:   plugins.Builtin(),
		Recorder:  rec,
		Logger:    logger,
	})
}
