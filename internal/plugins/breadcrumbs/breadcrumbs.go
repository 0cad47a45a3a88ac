// Package breadcrumbs computes the ancestor trail of each page and emits
// it as schema.org JSON-LD.
package breadcrumbs

import (
	"context"
	"encoding/json"
	"html/template"
	"strings"

	"git.home.luguber.info/inful/bang/internal/assets"
	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/plugin"
)

// Context is the config scope trails are computed in.
const Context = "breadcrumbs"

// Crumb is one step of a trail.
type Crumb struct {
	Name string
	URL  string
}

// Plugin exposes trails to templates and pages.
type Plugin struct {
	host     plugin.Host
	settings plugin.Settings
}

func New() *Plugin { return &Plugin{} }

func (*Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "breadcrumbs",
		Version:     "v1.0.0",
		Type:        plugin.TypeTemplate,
		Description: "breadcrumb trails and BreadcrumbList JSON-LD",
	}
}

// Configure adds the breadcrumbs template function and the JSON-LD
// writer. Settings: home (the first crumb's name, default the site
// title), jsonld (default true), scheme.
func (pl *Plugin) Configure(_ context.Context, host plugin.Host, settings plugin.Settings) error {
	pl.host = host
	pl.settings = settings

	host.Theme().Funcs(template.FuncMap{
		"breadcrumbs": func(it *content.Item) ([]Crumb, error) {
			if it == nil {
				return nil, nil
			}
			return pl.Trail(context.Background(), it)
		},
	})
	if settings.Bool("jsonld", true) {
		events.On(host.Bus(), events.OutputTemplatePage, "breadcrumbs", pl.inject)
	}
	return nil
}

// Trail returns the home crumb followed by every page-like ancestor of it
// and it itself. URLs are absolute.
func (pl *Plugin) Trail(ctx context.Context, it *content.Item) ([]Crumb, error) {
	var trail []Crumb
	cfg := pl.host.Config()
	err := cfg.With(ctx, Context, map[string]any{config.KeyScheme: plugin.Scheme(pl.host, pl.settings)}, func() error {
		base := cfg.BaseURL()
		home := pl.settings.String("home", cfg.String(config.KeyTitle))
		if home == "" {
			home = "Home"
		}
		trail = append(trail, Crumb{Name: home, URL: base + "/"})
		if it.Rel() == "" {
			return nil
		}
		segs := strings.Split(it.Rel(), "/")
		for i := range segs {
			anc, ok := pl.host.Item(strings.Join(segs[:i+1], "/"))
			if !ok || !anc.Renders() {
				continue
			}
			c, err := pl.host.CompileItem(ctx, anc)
			if err != nil {
				return err
			}
			trail = append(trail, Crumb{Name: c.Title, URL: anc.URL(base)})
		}
		return nil
	})
	return trail, err
}

type listItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

type breadcrumbList struct {
	Context  string     `json:"@context"`
	Type     string     `json:"@type"`
	Elements []listItem `json:"itemListElement"`
}

// JSONLD encodes trail as a schema.org BreadcrumbList script element.
func JSONLD(trail []Crumb) (string, error) {
	doc := breadcrumbList{Context: "https://schema.org", Type: "BreadcrumbList"}
	for i, c := range trail {
		doc.Elements = append(doc.Elements, listItem{Type: "ListItem", Position: i + 1, Name: c.Name, Item: c.URL})
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return `<script type="application/ld+json">` + string(data) + "</script>\n", nil
}

func (pl *Plugin) inject(ctx context.Context, out *plugin.TemplateOutput) error {
	trail, err := pl.Trail(ctx, out.Item)
	if err != nil {
		return err
	}
	if len(trail) < 2 {
		return nil
	}
	script, err := JSONLD(trail)
	if err != nil {
		return plugin.Error("breadcrumbs", "encode", err)
	}
	html, err := assets.Inject(out.HTML, script, "")
	if err != nil {
		return plugin.Error("breadcrumbs", "inject", err)
	}
	out.HTML = html
	return nil
}
