package project

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/gitinfo"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/paths"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/theme"
)

// Configure runs the configure phases once: project, theme, plugins and
// assets. Later calls do nothing.
func (p *Project) Configure(ctx context.Context) error {
	if p.configured {
		return nil
	}
	timer := metrics.StartPhase(p.recorder, "configure")
	defer timer.Stop()

	if _, err := p.bus.Broadcast(ctx, events.ConfigureProject, plugin.Host(p)); err != nil {
		return err
	}

	th, err := theme.Discover(p.dir, p.cfg.String(config.KeyTheme), p.logger)
	if err != nil {
		return err
	}
	p.theme = th
	p.theme.Funcs(p.templateFuncs())
	if _, err := p.bus.Broadcast(ctx, events.ConfigureTheme, plugin.Host(p)); err != nil {
		return err
	}

	if err := p.configurePlugins(ctx); err != nil {
		return err
	}
	if _, err := p.bus.Broadcast(ctx, events.ConfigurePlugins, plugin.Host(p)); err != nil {
		return err
	}

	if err := p.configureAssets(); err != nil {
		return err
	}
	if _, err := p.bus.Broadcast(ctx, events.ConfigureAssets, plugin.Host(p)); err != nil {
		return err
	}

	events.On(p.bus, events.OutputTemplate, "assets", p.injectAssets)
	p.configured = true
	return nil
}

func (p *Project) configurePlugins(ctx context.Context) error {
	enabled, err := p.plugins.Resolve(p.file.Plugins)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "cannot resolve plugins").
			WithContext("plugins", p.file.Plugins).
			Build()
	}
	for _, pl := range enabled {
		meta := pl.Metadata()
		if err := pl.Configure(ctx, p, plugin.Settings(p.file.Section(meta.Name))); err != nil {
			return plugin.Error(meta.Name, "configure", err)
		}
		p.logger.Debug("Plugin configured", logfields.Plugin(meta.Name), slog.String("version", meta.Version))
	}
	return nil
}

func (p *Project) configureAssets() error {
	if err := p.assets.AddDir(p.dir); err != nil {
		return err
	}
	if err := p.assets.AddDir(p.theme.AssetRoot()); err != nil {
		return err
	}
	order := p.file.Assets.Order
	if err := p.assets.Order(order.Before, order.Middle, order.After); err != nil {
		return err
	}
	if p.file.Assets.BodyScript != "" {
		p.assets.SetBodyScript(p.file.Assets.BodyScript)
	}
	return nil
}

// injectAssets adds the asset markup to every rendered page, unless the
// current context turns it off with inject_assets: false.
func (p *Project) injectAssets(_ context.Context, out *plugin.TemplateOutput) error {
	if !p.cfg.Bool("inject_assets", true) {
		return nil
	}
	html, err := p.assets.Inject(out.HTML)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTheme, "inject assets").
			WithContext("path", out.Path).Build()
	}
	out.HTML = html
	return nil
}

// Load scans the project and theme input trees.
func (p *Project) Load(ctx context.Context) error {
	if !p.configured {
		return ferrors.InternalError("project loaded before configure").Build()
	}
	timer := metrics.StartPhase(p.recorder, "load")
	defer timer.Stop()

	if p.history == nil {
		h, err := gitinfo.Open(ctx, p.dir, p.logger)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warn("Git history unavailable", logfields.Path(p.dir), logfields.Error(err))
			h = &gitinfo.History{}
		}
		p.history = h
	}

	roots := []string{p.inputDir}
	if d := p.theme.InputDir(); d != "" {
		roots = append(roots, d)
	}
	index, err := content.Scan(roots, p.variants, content.ScanOptions{
		DateOf:        p.history.LastModified,
		Now:           p.now,
		PublishFuture: p.cfg.Bool(config.KeyPublishFuture, false),
		Logger:        p.logger,
	})
	if err != nil {
		return err
	}
	p.index = index
	p.logger.Info("Content loaded", logfields.Count(len(index.Items())), slog.Any("variants", index.Names()))
	return nil
}

// Compile brackets the compile phase. Items compile lazily on first use in
// each context, so this only drops the caches of a previous build.
func (p *Project) Compile(ctx context.Context) error {
	if p.index == nil {
		return ferrors.InternalError("project compiled before load").Build()
	}
	timer := metrics.StartPhase(p.recorder, "compile")
	defer timer.Stop()

	if _, err := p.bus.Broadcast(ctx, events.CompileStart, p.index); err != nil {
		return err
	}
	for _, it := range p.index.Items() {
		it.Forget()
	}
	p.cfg.Forget(config.KeyMarkdown)
	p.embeds.Reset()
	if err := p.assets.Compile(); err != nil {
		return err
	}
	if _, err := p.bus.Broadcast(ctx, events.CompileFinish, p.index); err != nil {
		return err
	}
	return nil
}

// Output writes every output context. A non-nil filter restricts writes
// to output paths it matches; the output directory is then kept and
// output.finish is not broadcast.
func (p *Project) Output(ctx context.Context, filter *regexp.Regexp) error {
	if p.index == nil {
		return ferrors.InternalError("project output before load").Build()
	}
	timer := metrics.StartPhase(p.recorder, "output")
	defer timer.Stop()

	run := plugin.Run{Items: p.index.Items(), Filter: filter}
	if run.Partial() {
		p.logger.Warn("Partial output: keeping existing files and skipping output.finish",
			slog.String("filter", filter.String()))
	} else if err := paths.Clear(p.outputDir); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "clear output directory").
			WithContext("path", p.outputDir).Build()
	}

	if _, err := p.bus.Broadcast(ctx, events.OutputStart, run); err != nil {
		return err
	}

	n, err := p.assets.Output(p.outputDir, p.cfg.BaseURL())
	if err != nil {
		return err
	}
	p.recorder.IncCopiedFiles(n)

	for _, name := range p.outputs.Names() {
		out, _ := p.outputs.Get(name)
		err := p.cfg.With(ctx, name, p.file.ContextValues(name), func() error {
			return out(ctx, p, run)
		})
		if err != nil {
			return err
		}
	}

	if run.Partial() {
		return nil
	}
	_, err = p.bus.Broadcast(ctx, events.OutputFinish, &plugin.OutputFinish{
		OutputDir: p.outputDir,
		Items:     run.Items,
	})
	return err
}

// Build configures the project if needed, then loads, compiles and
// writes it.
func (p *Project) Build(ctx context.Context, filter *regexp.Regexp) (err error) {
	start := time.Now()
	defer func() {
		p.recorder.ObserveBuildDuration(time.Since(start))
		switch {
		case err != nil:
			p.recorder.IncBuildOutcome(metrics.OutcomeFailed)
		case filter != nil:
			p.recorder.IncBuildOutcome(metrics.OutcomePartial)
		default:
			p.recorder.IncBuildOutcome(metrics.OutcomeSuccess)
		}
	}()

	if err := p.Configure(ctx); err != nil {
		return err
	}
	if err := p.Load(ctx); err != nil {
		return err
	}
	if err := p.Compile(ctx); err != nil {
		return err
	}
	if err := p.Output(ctx, filter); err != nil {
		return err
	}
	p.logger.Info("Build finished",
		logfields.Path(p.outputDir),
		logfields.Count(len(p.index.Items())),
		logfields.Duration(time.Since(start)))
	return nil
}

// Rebuild drops the parsed templates and git history and builds again.
func (p *Project) Rebuild(ctx context.Context) error {
	if p.theme != nil {
		p.theme.Reset()
	}
	p.history = nil
	return p.Build(ctx, nil)
}
