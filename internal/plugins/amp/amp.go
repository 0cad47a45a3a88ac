// Package amp renders an AMP copy of every page under <page>/amp/.
package amp

import (
	"context"
	"html/template"
	"path"
	"slices"

	"git.home.luguber.info/inful/bang/internal/assets"
	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/markdown"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/registry"
)

const (
	// Context is the output context AMP pages render in.
	Context = markdown.AMPView
	// Template is the theme template for AMP pages.
	Template = "amp"
	// Dir is the subdirectory of a page holding its AMP copy.
	Dir = "amp"

	htmlContext = "html"
)

// Plugin registers the amp output context.
type Plugin struct {
	variants []string
}

func New() *Plugin { return &Plugin{} }

func (*Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "amp",
		Version:     "v1.0.0",
		Type:        plugin.TypeOutput,
		Description: "AMP copies of pages",
	}
}

// Configure registers the output after html. Settings: variants, the
// variant names that get an AMP copy (default all).
func (pl *Plugin) Configure(_ context.Context, host plugin.Host, settings plugin.Settings) error {
	pl.variants = settings.Strings("variants")

	// AMP documents may not carry the site's scripts and styles.
	events.On(host.Bus(), events.ContextEntered(Context), "amp", func(_ context.Context, cfg *config.Config) error {
		cfg.Set("inject_assets", false)
		return nil
	})
	events.On(host.Bus(), events.OutputTemplatePage, "amp", func(_ context.Context, out *plugin.TemplateOutput) error {
		return pl.linkAMP(host, out)
	})
	host.Theme().Funcs(template.FuncMap{
		"ampURL": func(it *content.Item) string {
			if it == nil || !pl.eligible(it) {
				return ""
			}
			return URL(it, host.Config().BaseURL())
		},
	})
	return host.RegisterOutput(Context, pl.output, registry.After(htmlContext))
}

// URL is the address of an item's AMP copy.
func URL(it *content.Item, base string) string {
	return it.URL(base) + Dir + "/"
}

func (pl *Plugin) eligible(it *content.Item) bool {
	return it.Renders() && (len(pl.variants) == 0 || slices.Contains(pl.variants, it.VariantName()))
}

func (pl *Plugin) output(ctx context.Context, host plugin.Host, run plugin.Run) error {
	if !host.Theme().HasTemplate(Template) {
		host.Logger().Warn("No amp template, skipping AMP pages", logfields.Template(Template))
		return nil
	}
	n := 0
	for _, it := range run.Items {
		if !pl.eligible(it) || !run.Selected(it.Rel()) {
			continue
		}
		rel := path.Join(it.OutputRel(), Dir)
		err := host.RenderPage(ctx, it, []string{Template}, rel, map[string]any{
			"Canonical": it.URL(host.Config().BaseURL()),
		})
		if err != nil {
			return err
		}
		n++
	}
	host.Logger().Info("AMP pages written", logfields.Count(n))
	return nil
}

// linkAMP points html pages at their AMP copy.
func (pl *Plugin) linkAMP(host plugin.Host, out *plugin.TemplateOutput) error {
	if out.Context != htmlContext || out.Item == nil || !pl.eligible(out.Item) || !host.Theme().HasTemplate(Template) {
		return nil
	}
	link := `<link rel="amphtml" href="` + template.HTMLEscapeString(URL(out.Item, host.Config().BaseURL())) + `">` + "\n"
	html, err := assets.Inject(out.HTML, link, "")
	if err != nil {
		return plugin.Error("amp", "link", err)
	}
	out.HTML = html
	return nil
}
