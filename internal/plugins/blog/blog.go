// Package blog adds dated posts: directories holding a post.md.
package blog

import (
	"context"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/registry"
)

// Name is the plugin and variant name.
const Name = "post"

// Post is a dated page. Drafts and future posts are skipped at scan time.
type Post struct{}

func (Post) Name() string   { return Name }
func (Post) Parent() string { return content.PageName }
func (Post) Dated() bool    { return true }

func (Post) Match(files []string) (string, bool) {
	return content.MatchFile(files, "post.md", "post.markdown")
}

// Plugin registers the post variant ahead of page.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (*Plugin) Metadata() plugin.Metadata {
	return plugin.Metadata{
		Name:        "blog",
		Version:     "v1.0.0",
		Type:        plugin.TypeVariant,
		Description: "Dated posts listed on the paginated index",
	}
}

// Configure registers Post. Settings: index (bool, default true) makes
// posts the paginated index collection.
func (*Plugin) Configure(_ context.Context, host plugin.Host, settings plugin.Settings) error {
	if err := host.Variants().Register(Post{}, registry.Before(content.PageName)); err != nil {
		return err
	}
	if settings.Bool("index", true) {
		host.Config().SetGlobal(config.KeyIndexType, Name)
	}
	return nil
}
