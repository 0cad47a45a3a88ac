package project

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"maps"
	"path/filepath"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/markdown"
	"git.home.luguber.info/inful/bang/internal/paths"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/theme"
)

// IndexTemplate renders the paginated index.
const IndexTemplate = "index"

// Markdown returns the converter of the current config context, created
// on first use in that context.
func (p *Project) Markdown() (*markdown.Markdown, error) {
	v, err := p.cfg.Memo(config.KeyMarkdown, func() (any, error) {
		return markdown.New(markdown.Options{
			View:     p.cfg.View(),
			Embedder: p.embeds,
			Logger:   p.logger,
		}), nil
	})
	if err != nil {
		return nil, err
	}
	md := v.(*markdown.Markdown)
	md.SetView(p.cfg.View())
	return md, nil
}

// CompileItem renders it in the current config context.
func (p *Project) CompileItem(ctx context.Context, it *content.Item) (*content.Compiled, error) {
	md, err := p.Markdown()
	if err != nil {
		return nil, err
	}
	return it.Compile(ctx, p.cfg.View(), md)
}

// RenderPage renders the first existing template of templates and writes
// it to rel/index.html. A missing template yields an error matching
// theme.ErrTemplateNotFound.
func (p *Project) RenderPage(ctx context.Context, it *content.Item, templates []string, rel string, data map[string]any) error {
	name, ok := p.theme.First(templates...)
	if !ok {
		return ferrors.ThemeError(theme.ErrTemplateNotFound.Message()).
			WithContext("templates", templates).
			WithContext("path", rel).
			Build()
	}

	view := p.cfg.View()
	page, err := p.pageData(ctx, view, it)
	if err != nil {
		return err
	}
	maps.Copy(page, data)

	html, err := p.theme.RenderTemplate(name, page)
	if err != nil {
		return err
	}
	out := &plugin.TemplateOutput{
		Context:  view.Name(),
		Template: name,
		Path:     filepath.Join(p.outputDir, filepath.FromSlash(rel), "index.html"),
		Item:     it,
		Data:     page,
		HTML:     html,
	}
	if _, err := p.bus.Broadcast(ctx, events.OutputTemplate, out); err != nil {
		return err
	}
	if it != nil {
		if _, err := p.bus.Broadcast(ctx, events.OutputTemplatePage, out); err != nil {
			return err
		}
	}
	if err := theme.WriteFile(out.Path, out.HTML); err != nil {
		return err
	}

	variant := IndexTemplate
	if it != nil {
		variant = it.VariantName()
	}
	p.recorder.IncRendered(view.Name(), variant)
	p.logger.Debug("Page written", logfields.Path(out.Path), logfields.Template(name), logfields.Context(view.Name()))
	return nil
}

// pageData is what every template sees. Item fields are only set for
// pages backed by an item.
func (p *Project) pageData(ctx context.Context, view config.View, it *content.Item) (map[string]any, error) {
	base := view.BaseURL()
	data := map[string]any{
		"Site": map[string]any{
			"Title":       view.String(config.KeyTitle),
			"Description": view.String("description"),
			"URL":         base + "/",
		},
		"Context": view.Name(),
		"Config":  view,
	}
	if it == nil {
		return data, nil
	}
	c, err := p.CompileItem(ctx, it)
	if err != nil {
		return nil, err
	}
	data["Item"] = it
	data["Title"] = c.Title
	data["Content"] = template.HTML(c.HTML) //nolint:gosec // rendered by the markdown pipeline
	data["Description"] = c.Description
	data["Meta"] = c.Meta
	data["URL"] = it.URL(base)
	data["Date"] = it.Date()
	data["Prev"] = it.Prev()
	data["Next"] = it.Next()
	return data, nil
}

// writeHTML is the core output context: one page per item, the item's
// supporting files, and the paginated index.
func (p *Project) writeHTML(ctx context.Context, _ plugin.Host, run plugin.Run) error {
	rootTaken := false
	for _, it := range run.Items {
		if it.OutputRel() == "" && it.Renders() {
			rootTaken = true
		}
		if !run.Selected(it.Rel()) {
			continue
		}
		if err := p.writeItem(ctx, it); err != nil {
			return err
		}
	}
	return p.writeIndex(ctx, run, rootTaken)
}

func (p *Project) writeItem(ctx context.Context, it *content.Item) error {
	if it.Renders() {
		err := p.RenderPage(ctx, it, it.Templates(), it.OutputRel(), nil)
		switch {
		case errors.Is(err, theme.ErrTemplateNotFound):
			p.logger.Warn("No template for item, skipping",
				logfields.Path(it.Path()),
				logfields.Variant(it.VariantName()),
				slog.Any("templates", it.Templates()))
		case err != nil:
			return err
		}
	}
	target := filepath.Join(p.outputDir, filepath.FromSlash(it.OutputRel()))
	for _, f := range it.Files() {
		if err := paths.CopyFile(filepath.Join(it.Dir(), f), filepath.Join(target, f)); err != nil {
			p.logger.Warn("Copy failed", logfields.File(f), logfields.Path(it.Dir()), logfields.Error(err))
			continue
		}
		p.recorder.IncCopiedFiles(1)
	}
	return nil
}

// writeIndex paginates the index_type collection. An item rendered at the
// output root replaces the first index page.
func (p *Project) writeIndex(ctx context.Context, run plugin.Run, rootTaken bool) error {
	items := content.Ordered(p.Collection(p.cfg.String(config.KeyIndexType)).All(), p.cfg.String(config.KeyPageOrder))
	base := p.cfg.BaseURL()
	for _, pg := range content.Paginate(items, p.cfg.Int(config.KeyPageLimit, 10)) {
		rel := pg.OutputRel()
		if (rel == "" && rootTaken) || !run.Selected(rel) {
			continue
		}
		err := p.RenderPage(ctx, nil, []string{IndexTemplate}, rel, map[string]any{
			"Pager":   pg,
			"Items":   pg.Items,
			"URL":     pg.URL(base),
			"NextURL": pg.NextURL(base),
			"PrevURL": pg.PrevURL(base),
		})
		if errors.Is(err, theme.ErrTemplateNotFound) {
			p.logger.Debug("No index template, skipping pagination")
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// templateFuncs are the project's additions to the theme's functions.
// They read the config at call time, so URLs follow the current context.
func (p *Project) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"url": func(it *content.Item) string {
			if it == nil {
				return ""
			}
			return it.URL(p.cfg.BaseURL())
		},
		"compile": func(it *content.Item) (*content.Compiled, error) {
			return p.CompileItem(context.Background(), it)
		},
		"asset": func(name string) string {
			if a, ok := p.assets.Get(name); ok {
				return a.URL
			}
			return ""
		},
		"collection": func(name string) []*content.Item {
			return p.Collection(name).All()
		},
		"truncate": markdown.Truncate,
	}
}
