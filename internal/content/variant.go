// Package content classifies input directories into typed items and keeps
// them in per-variant collections.
//
// Every public input directory becomes at most one Item. The first
// registered Variant whose Match accepts the directory's files decides the
// item's type; Other matches everything and only copies files. Items
// compile lazily, once per config context.
package content

import (
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/registry"
)

// Variant is one kind of content directory.
type Variant interface {
	Name() string
	// Parent names the variant whose templates this one falls back to;
	// "" for the root variants.
	Parent() string
	// Match picks the content file among a directory's public files.
	// Variants without a content file return "" and true.
	Match(files []string) (file string, ok bool)
}

// Dated is implemented by variants whose items are drafts or scheduled
// posts; their items honour "draft" and future dates.
type Dated interface {
	Dated() bool
}

// Built-in variant names.
const (
	PageName  = "page"
	AuxName   = "aux"
	OtherName = "other"
)

// Page is a directory with an index.md.
type Page struct{}

func (Page) Name() string   { return PageName }
func (Page) Parent() string { return "" }

func (Page) Match(files []string) (string, bool) {
	return MatchFile(files, "index.md", "index.markdown")
}

// Aux is a standalone page with its own template, such as an about page.
type Aux struct{}

func (Aux) Name() string   { return AuxName }
func (Aux) Parent() string { return PageName }

func (Aux) Match(files []string) (string, bool) {
	return MatchFile(files, "aux.md")
}

// Other holds directories without content; their files are copied as is.
type Other struct{}

func (Other) Name() string   { return OtherName }
func (Other) Parent() string { return "" }

func (Other) Match([]string) (string, bool) { return "", true }

// MatchFile returns the first of names present in files, ignoring case.
func MatchFile(files []string, names ...string) (string, bool) {
	for _, n := range names {
		for _, f := range files {
			if strings.EqualFold(f, n) {
				return f, true
			}
		}
	}
	return "", false
}

// Variants is the ordered set of variants classification tries.
type Variants struct {
	reg *registry.Registry[Variant]
}

// NewVariants returns aux, page and other, in that order.
func NewVariants() *Variants {
	v := &Variants{reg: registry.New[Variant]()}
	_, _ = v.reg.Register(PageName, Page{}, registry.At(0))
	_, _ = v.reg.Register(OtherName, Other{}, registry.End)
	_, _ = v.reg.Register(AuxName, Aux{}, registry.Before(PageName))
	return v
}

// Register adds a variant at the given place. Plugins normally register
// before "page" so they are tried first.
func (v *Variants) Register(variant Variant, at registry.Placement) error {
	_, err := v.reg.Register(variant.Name(), variant, at)
	return err
}

// Get returns the named variant.
func (v *Variants) Get(name string) (Variant, bool) { return v.reg.Get(name) }

// Names returns the variant names in classification order.
func (v *Variants) Names() []string { return v.reg.Names() }

// Classify returns the first variant matching files and its content file.
func (v *Variants) Classify(files []string) (Variant, string, bool) {
	for _, variant := range v.reg.Items() {
		if file, ok := variant.Match(files); ok {
			return variant, file, true
		}
	}
	return nil, "", false
}

// Templates returns the template names tried for variant, most specific
// first, always ending in "page" for renderable variants.
func (v *Variants) Templates(name string) ([]string, error) {
	var chain []string
	for cur := name; cur != ""; {
		if slices.Contains(chain, cur) {
			return nil, ferrors.InternalError("variant parent cycle").
				WithContext("variant", name).Build()
		}
		chain = append(chain, cur)
		variant, ok := v.reg.Get(cur)
		if !ok {
			break
		}
		cur = variant.Parent()
	}
	if name != OtherName && !slices.Contains(chain, PageName) {
		chain = append(chain, PageName)
	}
	return chain, nil
}

func isDated(v Variant) bool {
	d, ok := v.(Dated)
	return ok && d.Dated()
}
