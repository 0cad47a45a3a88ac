// Package plugins lists the plugins compiled into bang.
package plugins

import (
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/plugins/amp"
	"git.home.luguber.info/inful/bang/internal/plugins/blog"
	"git.home.luguber.info/inful/bang/internal/plugins/breadcrumbs"
	"git.home.luguber.info/inful/bang/internal/plugins/feed"
	"git.home.luguber.info/inful/bang/internal/plugins/notify"
	"git.home.luguber.info/inful/bang/internal/plugins/sitemap"
)

// Builtin returns a registry holding every built-in plugin. A project
// enables them by name in bang.yaml.
func Builtin() *plugin.Registry {
	reg := plugin.NewRegistry()
	for _, p := range []plugin.Plugin{
		blog.New(),
		feed.New(),
		sitemap.New(),
		amp.New(),
		breadcrumbs.New(),
		notify.New(),
	} {
		if err := reg.Register(p); err != nil {
			panic(err)
		}
	}
	return reg
}
