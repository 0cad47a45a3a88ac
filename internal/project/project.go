// Package project runs a bang build: it loads the project settings,
// configures the theme, plugins and assets, scans the content tree and
// writes every output context.
package project

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/bang/internal/assets"
	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/embed"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/gitinfo"
	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/registry"
	"git.home.luguber.info/inful/bang/internal/retry"
	"git.home.luguber.info/inful/bang/internal/theme"
)

// Directory names below the project root.
const (
	InputDir  = "input"
	OutputDir = "output"
)

// HTMLContext is the config context of the core page output.
const HTMLContext = "html"

// Options configure a Project. Zero values select defaults.
type Options struct {
	// Dir is the project root.
	Dir string
	// OutputDir overrides <Dir>/output.
	OutputDir string
	// Overrides are written to the global scope after bang.yaml and the
	// environment, e.g. host and scheme from command line flags.
	Overrides map[string]any
	// Plugins holds every plugin bang.yaml may name.
	Plugins  *plugin.Registry
	Recorder metrics.Recorder
	Logger   *slog.Logger
	// Environ defaults to os.Environ().
	Environ []string
	// Fetcher replaces the oEmbed HTTP client.
	Fetcher embed.Fetcher
	// Now is the reference time for future posts; defaults to time.Now().
	Now time.Time
}

// Project is one site. It is not safe for concurrent use; builds run one
// at a time.
type Project struct {
	dir       string
	inputDir  string
	outputDir string

	logger   *slog.Logger
	recorder metrics.Recorder
	bus      *events.Bus
	cfg      *config.Config
	file     *config.ProjectFile
	plugins  *plugin.Registry
	now      time.Time

	variants *content.Variants
	outputs  *registry.Registry[plugin.Output]
	theme    *theme.Theme
	assets   *assets.Assets
	embeds   *embed.Engine
	history  *gitinfo.History
	index    *content.Index

	configured bool
}

// New loads the project at opts.Dir. It fails with config.ErrProjectNotFound
// when the directory does not exist.
func New(opts Options) (*Project, error) {
	dir, err := filepath.Abs(opts.Dir)
	if err != nil {
		return nil, err
	}
	file, err := config.LoadProject(dir)
	if err != nil {
		return nil, err
	}

	p := &Project{
		dir:      dir,
		inputDir: filepath.Join(dir, InputDir),
		logger:   opts.Logger,
		recorder: opts.Recorder,
		bus:      events.NewBus(),
		file:     file,
		plugins:  opts.Plugins,
		now:      opts.Now,
		variants: content.NewVariants(),
		outputs:  registry.New[plugin.Output](),
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.recorder == nil {
		p.recorder = metrics.NoopRecorder{}
	}
	if p.plugins == nil {
		p.plugins = plugin.NewRegistry()
	}

	p.cfg = config.New(p.bus)
	file.Apply(p.cfg)
	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}
	if n := p.cfg.ImportEnv(environ); n > 0 {
		p.logger.Debug("Imported environment settings", slog.Int("count", n))
	}
	for k, v := range opts.Overrides {
		p.cfg.SetGlobal(k, v)
	}

	p.outputDir = opts.OutputDir
	if p.outputDir == "" {
		p.outputDir = file.Output
	}
	if p.outputDir == "" {
		p.outputDir = OutputDir
	}
	if !filepath.IsAbs(p.outputDir) {
		p.outputDir = filepath.Join(dir, p.outputDir)
	}
	p.cfg.SetGlobal(config.KeyProjectDir, p.dir)
	p.cfg.SetGlobal(config.KeyInputDir, p.inputDir)
	p.cfg.SetGlobal(config.KeyOutputDir, p.outputDir)

	p.embeds = embed.New(embed.Options{
		Client:   p.embedClient(opts.Fetcher),
		Logger:   p.logger,
		Recorder: p.recorder,
	})
	p.assets = assets.New(p.logger)

	if _, err := p.outputs.Register(HTMLContext, p.writeHTML, registry.At(0)); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) embedClient(f embed.Fetcher) embed.Fetcher {
	if f != nil {
		return f
	}
	timeout, err := time.ParseDuration(p.cfg.String(config.KeyEmbedTimeout))
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	policy := retry.NewPolicy(retry.Exponential, 0, 0, p.cfg.Int(config.KeyEmbedRetries, -1))
	return embed.NewClient(embed.NewHTTPClient(timeout), policy)
}

// Dir is the project root.
func (p *Project) Dir() string { return p.dir }

// InputDir is the project's content tree.
func (p *Project) InputDir() string { return p.inputDir }

func (p *Project) Logger() *slog.Logger         { return p.logger }
func (p *Project) Bus() *events.Bus             { return p.bus }
func (p *Project) Config() *config.Config       { return p.cfg }
func (p *Project) Variants() *content.Variants  { return p.variants }
func (p *Project) Theme() *theme.Theme          { return p.theme }
func (p *Project) Assets() *assets.Assets       { return p.assets }
func (p *Project) Recorder() metrics.Recorder   { return p.recorder }
func (p *Project) OutputDir() string            { return p.outputDir }
func (p *Project) Embeds() *embed.Engine        { return p.embeds }
func (p *Project) File() *config.ProjectFile    { return p.file }
func (p *Project) Index() *content.Index        { return p.index }

// Collection returns the items of one variant. It is empty before Load.
func (p *Project) Collection(name string) *content.Collection {
	if p.index == nil {
		return content.NewCollection(name)
	}
	return p.index.Collection(name)
}

// Item looks up a scanned item by its input-relative path.
func (p *Project) Item(rel string) (*content.Item, bool) {
	if p.index == nil {
		return nil, false
	}
	return p.index.Item(rel)
}

// RegisterVariant adds a content variant.
func (p *Project) RegisterVariant(v content.Variant, at registry.Placement) error {
	return p.variants.Register(v, at)
}

// RegisterOutput adds an output context, run in registry order.
func (p *Project) RegisterOutput(name string, out plugin.Output, at registry.Placement) error {
	_, err := p.outputs.Register(name, out, at)
	return err
}

// Outputs returns the output context names in run order.
func (p *Project) Outputs() []string { return p.outputs.Names() }

var _ plugin.Host = (*Project)(nil)
