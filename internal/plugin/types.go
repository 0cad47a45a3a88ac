package plugin

import (
	"context"
	"regexp"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// Type identifies the category of plugin.
type Type string

const (
	// TypeVariant adds content variants.
	TypeVariant Type = "variant"

	// TypeOutput writes extra files or output contexts.
	TypeOutput Type = "output"

	// TypeTemplate changes rendered pages or adds template functions.
	TypeTemplate Type = "template"

	// TypePublisher announces or ships a finished build.
	TypePublisher Type = "publisher"
)

// IsValid returns true if the plugin type is recognized.
func (t Type) IsValid() bool {
	switch t {
	case TypeVariant, TypeOutput, TypeTemplate, TypePublisher:
		return true
	default:
		return false
	}
}

// String returns the string representation of the plugin type.
func (t Type) String() string {
	return string(t)
}

// Run is the input of one output context.
type Run struct {
	// Items are every scanned item in walk order.
	Items []*content.Item

	// Filter restricts which output paths are written. Nil selects all.
	Filter *regexp.Regexp
}

// Partial reports whether the run is restricted by a filter.
func (r Run) Partial() bool { return r.Filter != nil }

// Selected reports whether the output at rel should be written.
func (r Run) Selected(rel string) bool {
	return r.Filter == nil || r.Filter.MatchString(rel)
}

// Output writes one output context. The project enters the context's
// config scope before calling it.
type Output func(ctx context.Context, host Host, run Run) error

// TemplateOutput is the payload of events.OutputTemplate and
// events.OutputTemplatePage, broadcast after the template has run.
// Handlers may rewrite HTML; the result is what gets written.
type TemplateOutput struct {
	Context  string
	Template string
	// Path is the output file being written.
	Path string
	// Item is nil for pages that are not backed by an item, such as
	// pagination pages.
	Item *content.Item
	Data map[string]any
	HTML string
}

// OutputFinish is the payload of events.OutputFinish, broadcast only after
// a complete, unfiltered output.
type OutputFinish struct {
	OutputDir string
	Items     []*content.Item
}

// Error wraps err as a plugin failure during operation.
func Error(name, operation string, err error) error {
	return ferrors.WrapError(err, ferrors.CategoryPlugin, "plugin "+name+" failed during "+operation).
		WithContext("plugin", name).
		WithContext("operation", operation).
		Build()
}

// Scheme is the URL scheme for output that needs absolute links: the
// plugin's scheme setting, else the site's, else "https".
func Scheme(host Host, settings Settings) string {
	if s := settings.String("scheme", host.Config().String(config.KeyScheme)); s != "" {
		return s
	}
	return "https"
}
