package markdown

import (
	"context"

	"github.com/yuin/goldmark/parser"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/frontmatter"
)

// Item is the content entry a document belongs to.
type Item interface {
	// URL is the item's own URL, ending in "/", used as the base for
	// relative links. It is absolute or path-rooted.
	URL() string
	// InputDir is the directory holding the item's source file.
	InputDir() string
	// Key is short and stable per item; generated ids include it so they
	// stay unique across pages that end up on one HTML page.
	Key() string
	// Path identifies the item in error messages.
	Path() string
}

// Document is the state of one conversion. It is reset for every call to
// Convert, and passes reach it through Markdown.Document or the parser
// context.
type Document struct {
	Item  Item
	View  config.View
	Meta  frontmatter.Meta
	Title string
	Stash *Stash

	ctx  context.Context
	err  error
	seen map[string]any
}

func newDocument(ctx context.Context, item Item, view config.View, stash *Stash) *Document {
	return &Document{
		Item:  item,
		View:  view,
		Meta:  frontmatter.Meta{},
		Stash: stash,
		ctx:   ctx,
		seen:  map[string]any{},
	}
}

// Context is the context Convert was called with.
func (d *Document) Context() context.Context { return d.ctx }

// Key returns the item key, or "doc" when converting without an item.
func (d *Document) Key() string {
	if d.Item == nil || d.Item.Key() == "" {
		return "doc"
	}
	return d.Item.Key()
}

// Path names the document in errors and logs.
func (d *Document) Path() string {
	if d.Item == nil {
		return ""
	}
	return d.Item.Path()
}

// URL returns the item URL, or "" without an item.
func (d *Document) URL() string {
	if d.Item == nil {
		return ""
	}
	return d.Item.URL()
}

// InputDir returns the item's input directory, or "" without an item.
func (d *Document) InputDir() string {
	if d.Item == nil {
		return ""
	}
	return d.Item.InputDir()
}

// Fail records the first error raised from inside the goldmark parser,
// where passes cannot return errors themselves.
func (d *Document) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

// Err returns the recorded error.
func (d *Document) Err() error { return d.err }

// Scratch returns per-document storage for a pass, keyed by the pass name.
func (d *Document) Scratch(key string, init func() any) any {
	v, ok := d.seen[key]
	if !ok {
		v = init()
		d.seen[key] = v
	}
	return v
}

var documentKey = parser.NewContextKey()

// documentFrom returns the document stored in a goldmark parser context.
func documentFrom(pc parser.Context) *Document {
	if d, ok := pc.Get(documentKey).(*Document); ok {
		return d
	}
	return nil
}
