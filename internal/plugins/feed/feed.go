// Package feed writes an RSS 2.0 feed of the newest posts after a full
// build.
package feed

import (
	"context"
	"encoding/xml"
	"html/template"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/theme"
	"git.home.luguber.info/inful/bang/internal/urls"
)

const (
	// Context is the config scope the feed renders in.
	Context = "feed"
	// File is the feed's name in the output root.
	File = "feed.rss"

	defaultLimit = 20
)

type rss struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	Atom    string   `xml:"xmlns:atom,attr"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	LastBuildDate string   `xml:"lastBuildDate,omitempty"`
	Self          atomLink `xml:"atom:link"`
	Items         []item   `xml:"item"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type item struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        guid   `xml:"guid"`
	PubDate     string `xml:"pubDate,omitempty"`
	Description string `xml:"description"`
}

type guid struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// GUID is the stable identifier of the entry at link.
func GUID(link string) string {
	return "urn:uuid:" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
}

// Plugin writes feed.rss on output.finish.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (*Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:         "feed",
		Version:      "v1.0.0",
		Type:         plugin.TypeOutput,
		Description:  "RSS 2.0 feed of the newest posts",
		Dependencies: []string{"blog"},
	}
}

// Configure binds the feed writer. Settings: scheme (default the site
// scheme, else "https"), limit (default 20), collection (default
// index_type).
func (*Plugin) Configure(_ context.Context, host plugin.Host, settings plugin.Settings) error {
	limit := settings.Int("limit", defaultLimit)
	collection := settings.String("collection", "")

	host.Theme().Funcs(template.FuncMap{
		"feedURL": func() string {
			return urls.Join(host.Config().BaseURL(), File)
		},
	})

	events.On(host.Bus(), events.OutputFinish, "feed", func(ctx context.Context, fin *plugin.OutputFinish) error {
		scheme := plugin.Scheme(host, settings)
		return host.Config().With(ctx, Context, map[string]any{config.KeyScheme: scheme}, func() error {
			name := collection
			if name == "" {
				name = host.Config().String(config.KeyIndexType)
			}
			doc, err := build(ctx, host, host.Collection(name).All(), limit)
			if err != nil {
				return err
			}
			out, err := xml.MarshalIndent(doc, "", "  ")
			if err != nil {
				return plugin.Error("feed", "encode", err)
			}
			path := filepath.Join(fin.OutputDir, File)
			if err := theme.WriteFile(path, xml.Header+string(out)+"\n"); err != nil {
				return err
			}
			host.Logger().Info("Feed written", logfields.Path(path), logfields.Count(len(doc.Channel.Items)))
			return nil
		})
	})
	return nil
}

func build(ctx context.Context, host plugin.Host, items []*content.Item, limit int) (*rss, error) {
	cfg := host.Config()
	base := cfg.BaseURL()
	if cfg.String(config.KeyHost) == "" {
		host.Logger().Warn("Feed links are not absolute without a host")
	}
	items = content.Ordered(items, "newest")
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	doc := &rss{
		Version: "2.0",
		Atom:    "http://www.w3.org/2005/Atom",
		Channel: channel{
			Title:       cfg.String(config.KeyTitle),
			Link:        base + "/",
			Description: cfg.String("description"),
			Self:        atomLink{Href: urls.Join(base, File), Rel: "self", Type: "application/rss+xml"},
		},
	}
	if newest := content.Newest(items); !newest.IsZero() {
		doc.Channel.LastBuildDate = newest.UTC().Format(time.RFC1123Z)
	}
	for _, it := range items {
		if !it.Renders() {
			continue
		}
		c, err := host.CompileItem(ctx, it)
		if err != nil {
			return nil, err
		}
		link := it.URL(base)
		entry := item{
			Title:       c.Title,
			Link:        link,
			GUID:        guid{Value: GUID(link)},
			Description: c.HTML,
		}
		if !it.Date().IsZero() {
			entry.PubDate = it.Date().UTC().Format(time.RFC1123Z)
		}
		doc.Channel.Items = append(doc.Channel.Items, entry)
	}
	return doc, nil
}
