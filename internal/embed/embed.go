// Package embed turns standalone URLs into rich media.
//
// Providers are kept in a priority registry and the first one whose Match
// accepts a URL wins. Players (YouTube, Vimeo) are rendered locally;
// oEmbed providers (Twitter) go through a Fetcher backed by a per-directory
// JSON cache, so a second build over the same input makes no network
// calls. Failed lookups are logged and reported as "no embed".
package embed

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/registry"
	"git.home.luguber.info/inful/bang/internal/retry"
)

// Embed is a resolved embed.
type Embed struct {
	Provider string
	URL      string
	ID       string
	// HTML is the markup placed inside the embed figure. It is empty for
	// image embeds.
	HTML string
	// Frame is the player source for iframe based providers.
	Frame string
	Image bool
}

// Options configure an Engine. Zero values select defaults.
type Options struct {
	Providers []Provider
	Client    Fetcher
	Logger    *slog.Logger
	Recorder  metrics.Recorder
}

// Engine resolves URLs against its providers.
type Engine struct {
	providers *registry.Registry[Provider]
	client    Fetcher
	logger    *slog.Logger
	recorder  metrics.Recorder

	mu     sync.Mutex
	caches map[string]*Cache
}

// DefaultProviders returns YouTube, Vimeo, Twitter and Image in that order.
func DefaultProviders() []Provider {
	return []Provider{YouTube{}, Vimeo{}, Twitter{Endpoint: DefaultTwitterEndpoint}, Image{}}
}

// New builds an engine.
func New(opts Options) *Engine {
	e := &Engine{
		providers: registry.New[Provider](),
		client:    opts.Client,
		logger:    opts.Logger,
		recorder:  opts.Recorder,
		caches:    map[string]*Cache{},
	}
	if e.client == nil {
		e.client = NewClient(nil, retry.DefaultPolicy())
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.recorder == nil {
		e.recorder = metrics.NoopRecorder{}
	}
	providers := opts.Providers
	if providers == nil {
		providers = DefaultProviders()
	}
	for _, p := range providers {
		_, _ = e.providers.Register(p.Name(), p, registry.End)
	}
	return e
}

// Register adds or replaces a provider.
func (e *Engine) Register(p Provider, at registry.Placement) error {
	_, err := e.providers.Register(p.Name(), p, at)
	return err
}

// Providers returns provider names in match order.
func (e *Engine) Providers() []string { return e.providers.Names() }

// Lookup resolves raw. dir is the input directory whose cache is used for
// network backed providers; an empty dir disables caching.
func (e *Engine) Lookup(ctx context.Context, raw, dir string) (Embed, bool) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Embed{}, false
	}
	for _, p := range e.providers.Items() {
		id, ok := p.Match(u)
		if !ok {
			continue
		}
		em := Embed{Provider: p.Name(), URL: raw, ID: id}
		f := &cachedFetcher{engine: e, provider: p.Name(), dir: dir}
		if err := p.Render(ctx, &em, f); err != nil {
			e.recorder.IncEmbedLookup(p.Name(), metrics.EmbedError)
			e.logger.Warn("Embed lookup failed, keeping plain link",
				logfields.Provider(p.Name()), logfields.URL(raw), logfields.Error(err))
			return Embed{}, false
		}
		if !f.used {
			e.recorder.IncEmbedLookup(p.Name(), metrics.EmbedLocal)
		}
		return em, true
	}
	return Embed{}, false
}

// Reset drops the in-memory caches; the next lookup rereads them from disk.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.caches = map[string]*Cache{}
}

func (e *Engine) cache(dir, provider string) (*Cache, error) {
	path := CachePath(dir, provider)
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.caches[path]; ok {
		return c, nil
	}
	c, err := LoadCache(path)
	if err != nil {
		return nil, err
	}
	e.caches[path] = c
	return c, nil
}

// cachedFetcher answers from the cache of one provider and directory and
// writes misses back right away.
type cachedFetcher struct {
	engine   *Engine
	provider string
	dir      string
	used     bool
}

func (f *cachedFetcher) OEmbed(ctx context.Context, endpoint, rawURL string) (string, error) {
	f.used = true
	e := f.engine
	if f.dir == "" {
		html, err := e.client.OEmbed(ctx, endpoint, rawURL)
		if err == nil {
			e.recorder.IncEmbedLookup(f.provider, metrics.EmbedMiss)
		}
		return html, err
	}

	c, err := e.cache(f.dir, f.provider)
	if err != nil {
		e.logger.Warn("Embed cache unreadable, fetching", logfields.Path(CachePath(f.dir, f.provider)), logfields.Error(err))
		c = nil
	}
	if c != nil {
		if html, ok := c.Get(rawURL); ok {
			e.recorder.IncEmbedLookup(f.provider, metrics.EmbedHit)
			return html, nil
		}
	}

	html, err := e.client.OEmbed(ctx, endpoint, rawURL)
	if err != nil {
		return "", err
	}
	e.recorder.IncEmbedLookup(f.provider, metrics.EmbedMiss)
	if c != nil {
		c.Put(rawURL, html)
		if err := c.Save(); err != nil {
			e.logger.Warn("Failed to write embed cache", logfields.Path(c.Path()), logfields.Error(err))
		}
	}
	return html, nil
}
