package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bang/internal/assets"
	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/registry"
	"git.home.luguber.info/inful/bang/internal/theme"
)

// Host gives plugins access to the project without tight coupling.
type Host interface {
	// Logger provides structured logging for plugin operations.
	Logger() *slog.Logger

	// Bus is the project's event bus.
	Bus() *events.Bus

	// Config is the context-scoped configuration.
	Config() *config.Config

	// Variants is the set of content variants used to classify directories.
	Variants() *content.Variants

	// Theme is the project's template search path.
	Theme() *theme.Theme

	// Assets is the project's static file set.
	Assets() *assets.Assets

	// Recorder receives build metrics.
	Recorder() metrics.Recorder

	// OutputDir is where the site is written.
	OutputDir() string

	// Collection returns the items of the named variant, empty before
	// content is scanned.
	Collection(name string) *content.Collection

	// Item looks up a scanned item by its input-relative path.
	Item(rel string) (*content.Item, bool)

	// RegisterOutput adds an output context. Contexts run in registry
	// order after compile.finish, each inside its own config scope.
	RegisterOutput(name string, out Output, at registry.Placement) error

	// CompileItem renders it in the current config context.
	CompileItem(ctx context.Context, it *content.Item) (*content.Compiled, error)

	// RenderPage runs the first existing template of templates with data,
	// broadcasts the output.template events, injects asset markup and
	// writes the result to rel/index.html in the output directory.
	// it may be nil for pages without an item.
	RenderPage(ctx context.Context, it *content.Item, templates []string, rel string, data map[string]any) error
}

// Settings is a plugin's section of bang.yaml.
type Settings map[string]any

// Value retrieves a raw setting. Returns nil if the key doesn't exist.
func (s Settings) Value(key string) any {
	return s[key]
}

// String retrieves a string setting, or def when missing.
func (s Settings) String(key, def string) string {
	switch v := s[key].(type) {
	case string:
		return v
	case nil:
		return def
	default:
		return fmt.Sprint(v)
	}
}

// Bool retrieves a boolean setting, or def when missing or not a boolean.
func (s Settings) Bool(key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

// Int retrieves an integer setting, or def when missing or not a number.
func (s Settings) Int(key string, def int) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// Duration retrieves a duration written as a Go duration string.
func (s Settings) Duration(key string, def time.Duration) time.Duration {
	v, ok := s[key].(string)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// Strings retrieves a list of strings. Non-string entries are skipped.
func (s Settings) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{v}
	}
	return nil
}
