// Package sitemap writes sitemap.xml after a full build.
package sitemap

import (
	"context"
	"encoding/xml"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/theme"
)

const (
	// Context is the config scope the sitemap renders in.
	Context = "sitemap"
	// File is the sitemap's name in the output root.
	File = "sitemap.xml"

	namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	XMLNS   string   `xml:"xmlns,attr"`
	URLs    []entry  `xml:"url"`
}

type entry struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// Plugin writes sitemap.xml on output.finish.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (*Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "sitemap",
		Version:     "v1.0.0",
		Type:        plugin.TypeOutput,
		Description: "sitemap.xml of every page",
	}
}

// Configure binds the sitemap writer. Settings: scheme (default the site
// scheme, else "https") and exclude, a list of path prefixes to leave out.
func (*Plugin) Configure(_ context.Context, host plugin.Host, settings plugin.Settings) error {
	exclude := settings.Strings("exclude")

	events.On(host.Bus(), events.OutputFinish, "sitemap", func(ctx context.Context, fin *plugin.OutputFinish) error {
		scheme := plugin.Scheme(host, settings)
		return host.Config().With(ctx, Context, map[string]any{config.KeyScheme: scheme}, func() error {
			if host.Config().String(config.KeyHost) == "" {
				host.Logger().Warn("Sitemap locations are not absolute without a host")
			}
			doc := build(fin.Items, host.Config().BaseURL(), exclude)
			out, err := xml.MarshalIndent(doc, "", "  ")
			if err != nil {
				return plugin.Error("sitemap", "encode", err)
			}
			path := filepath.Join(fin.OutputDir, File)
			if err := theme.WriteFile(path, xml.Header+string(out)+"\n"); err != nil {
				return err
			}
			host.Logger().Info("Sitemap written", logfields.Path(path), logfields.Count(len(doc.URLs)))
			return nil
		})
	})
	return nil
}

// build lists every item that renders a page, in walk order.
func build(items []*content.Item, base string, exclude []string) *urlset {
	doc := &urlset{XMLNS: namespace}
	for _, it := range items {
		if !it.Renders() || excluded(it.OutputRel(), exclude) {
			continue
		}
		e := entry{Loc: it.URL(base)}
		if !it.Date().IsZero() {
			e.LastMod = it.Date().UTC().Format("2006-01-02")
		}
		doc.URLs = append(doc.URLs, e)
	}
	return doc
}

func excluded(rel string, prefixes []string) bool {
	for _, p := range prefixes {
		p = strings.Trim(p, "/")
		if rel == p || strings.HasPrefix(rel, p+"/") {
			return true
		}
	}
	return false
}
