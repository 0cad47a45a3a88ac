package content

import (
	"context"
	"hash/fnv"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/bang/internal/config"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/frontmatter"
	"git.home.luguber.info/inful/bang/internal/markdown"
	"git.home.luguber.info/inful/bang/internal/paths"
	"git.home.luguber.info/inful/bang/internal/urls"
)

// Converter turns markdown source into HTML.
type Converter interface {
	Convert(ctx context.Context, src string, item markdown.Item) (*markdown.Result, error)
}

// Compiled is an item rendered in one config context.
type Compiled struct {
	HTML        string
	Title       string
	Meta        frontmatter.Meta
	Description string
}

// Item is one classified input directory.
type Item struct {
	variant   Variant
	templates []string
	rel       string
	outRel    string
	dir       string
	file      string
	files     []string
	header    frontmatter.Meta
	date      time.Time

	coll  *Collection
	index int

	mu       sync.Mutex
	compiled map[string]*Compiled
}

// NewItem builds an item for the directory dir at rel. file is the content
// file name inside dir, "" for copy-only items.
func NewItem(variant Variant, templates []string, dir, rel, file string, files []string) *Item {
	return &Item{
		variant:   variant,
		templates: templates,
		rel:       rel,
		outRel:    paths.OutputRel(rel),
		dir:       dir,
		file:      file,
		files:     files,
		header:    frontmatter.Meta{},
		index:     -1,
		compiled:  map[string]*Compiled{},
	}
}

// Variant returns the item's type.
func (it *Item) Variant() Variant { return it.variant }

// VariantName returns the name of the item's type.
func (it *Item) VariantName() string { return it.variant.Name() }

// Templates returns the template names to try, most specific first.
func (it *Item) Templates() []string { return it.templates }

// Rel is the slash separated input path relative to the input root.
func (it *Item) Rel() string { return it.rel }

// OutputRel is the slash separated output directory relative to the
// output root.
func (it *Item) OutputRel() string { return it.outRel }

// Dir is the absolute input directory.
func (it *Item) Dir() string { return it.dir }

// File is the absolute content file, "" for copy-only items.
func (it *Item) File() string {
	if it.file == "" {
		return ""
	}
	return filepath.Join(it.dir, it.file)
}

// Renders reports whether the item has content to render.
func (it *Item) Renders() bool { return it.file != "" }

// Files returns the supporting files copied next to the output, which is
// every public file of the directory except the content file.
func (it *Item) Files() []string {
	out := make([]string, 0, len(it.files))
	for _, f := range it.files {
		if f != it.file {
			out = append(out, f)
		}
	}
	return out
}

// Header is the metadata read at scan time.
func (it *Item) Header() frontmatter.Meta { return it.header }

// Date is the item's publication date.
func (it *Item) Date() time.Time { return it.date }

// Draft reports a "draft: true" header.
func (it *Item) Draft() bool {
	switch v := it.header["draft"].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
	}
	return false
}

// Key is unique per item and safe to use inside HTML ids. Slashes become
// dashes; a path that already holds a dash gets a hash suffix so "a-b"
// and "a/b" stay apart.
func (it *Item) Key() string {
	if it.outRel == "" {
		return "index"
	}
	key := strings.ReplaceAll(it.outRel, "/", "-")
	if strings.Contains(it.outRel, "-") {
		h := fnv.New32a()
		_, _ = h.Write([]byte(it.outRel))
		key += "-" + strconv.FormatUint(uint64(h.Sum32()), 36)
	}
	return key
}

// Path identifies the item in logs and errors.
func (it *Item) Path() string {
	if f := it.File(); f != "" {
		return f
	}
	return it.dir
}

// URL returns the item URL under baseURL, ending in "/".
func (it *Item) URL(baseURL string) string {
	if it.outRel == "" {
		return baseURL + "/"
	}
	return urls.Join(baseURL, it.outRel) + "/"
}

// Prev returns the item before this one in its collection.
func (it *Item) Prev() *Item {
	if it.coll == nil {
		return nil
	}
	return it.coll.At(it.index - 1)
}

// Next returns the item after this one in its collection.
func (it *Item) Next() *Item {
	if it.coll == nil {
		return nil
	}
	return it.coll.At(it.index + 1)
}

// Index is the item's position in its collection, -1 when unattached.
func (it *Item) Index() int { return it.index }

// Compiled returns the cached compile for context, if any.
func (it *Item) Compiled(context string) (*Compiled, bool) {
	it.mu.Lock()
	defer it.mu.Unlock()
	c, ok := it.compiled[context]
	return c, ok
}

// Compile renders the item's content in the view's context. The result is
// cached per context name, so later calls in the same context are free.
func (it *Item) Compile(ctx context.Context, view config.View, conv Converter) (*Compiled, error) {
	it.mu.Lock()
	defer it.mu.Unlock()
	if c, ok := it.compiled[view.Name()]; ok {
		return c, nil
	}
	if !it.Renders() {
		return nil, ferrors.InternalError("item has no content to compile").
			WithContext("path", it.dir).Build()
	}
	src, err := os.ReadFile(it.File())
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content file").
			WithContext("path", it.File()).Build()
	}
	res, err := conv.Convert(ctx, string(src), itemRef{it: it, base: view.BaseURL()})
	if err != nil {
		return nil, err
	}

	c := &Compiled{HTML: res.HTML, Title: res.Title, Meta: res.Meta}
	if c.Title == "" {
		c.Title = fallbackTitle(it.rel)
	}
	c.Description = res.Meta.String("description")
	if c.Description == "" {
		c.Description = markdown.Summary(res.HTML, view.Int(config.KeyDescriptionSize, 200))
	}
	it.compiled[view.Name()] = c
	return c, nil
}

// Forget drops every cached compile.
func (it *Item) Forget() {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.compiled = map[string]*Compiled{}
}

var titleCaser = cases.Title(language.Und)

// fallbackTitle derives a title from the directory name, dropping a
// leading date.
func fallbackTitle(rel string) string {
	base := path.Base(rel)
	if rel == "" || base == "." {
		return ""
	}
	base = datePrefix.ReplaceAllString(base, "")
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return titleCaser.String(strings.TrimSpace(base))
}

// itemRef is the item as seen by the markdown converter in one context.
type itemRef struct {
	it   *Item
	base string
}

func (r itemRef) URL() string      { return r.it.URL(r.base) }
func (r itemRef) InputDir() string { return r.it.dir }
func (r itemRef) Key() string      { return r.it.Key() }
func (r itemRef) Path() string     { return r.it.Path() }
