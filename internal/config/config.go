// Package config holds bang's layered settings.
//
// Settings live in a stack of named scopes with the global scope at the
// bottom. Reads walk the stack from the top, writes go to the top scope.
// Rendering phases push a named scope ("html", "feed", "amp", ...) for their
// duration so the same content can be rendered with different values for
// things like the URL scheme. A Config is not safe for concurrent use.
package config

import (
	"context"
	"maps"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/bang/internal/events"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// GlobalScope is the name of the bottom scope.
const GlobalScope = "global"

// EnvPrefix marks environment variables imported by ImportEnv.
const EnvPrefix = "BANG_"

type scope struct {
	name   string
	values map[string]any
	memo   map[string]any
}

// Config is a stack of named scopes.
type Config struct {
	stack []*scope
	named map[string]*scope
	bus   *events.Bus
}

// New creates a config holding only the global scope, seeded with Defaults.
// When bus is non-nil the first push of every named scope broadcasts
// "context.<name>" on it, once per bus.
func New(bus *events.Bus) *Config {
	global := &scope{name: GlobalScope, values: Defaults(), memo: map[string]any{}}
	return &Config{
		stack: []*scope{global},
		named: map[string]*scope{GlobalScope: global},
		bus:   bus,
	}
}

func (c *Config) top() *scope { return c.stack[len(c.stack)-1] }

// Name returns the name of the innermost scope.
func (c *Config) Name() string { return c.top().name }

// Depth returns the number of scopes on the stack. It is never below one.
func (c *Config) Depth() int { return len(c.stack) }

// Set writes key into the innermost scope.
func (c *Config) Set(key string, value any) { c.top().values[key] = value }

// SetGlobal writes key into the global scope regardless of the stack.
func (c *Config) SetGlobal(key string, value any) { c.stack[0].values[key] = value }

// Lookup walks the stack from the top and returns the first value for key.
func (c *Config) Lookup(key string) (any, bool) {
	for i := len(c.stack) - 1; i >= 0; i-- {
		if v, ok := c.stack[i].values[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Get returns the value for key, or nil when no scope holds it.
func (c *Config) Get(key string) any {
	v, _ := c.Lookup(key)
	return v
}

func (c *Config) String(key string) string      { return asString(c.Get(key)) }
func (c *Config) Bool(key string, def bool) bool { return asBool(c.Get(key), def) }
func (c *Config) Int(key string, def int) int    { return asInt(c.Get(key), def) }

// BaseURL derives "<scheme>://<host>", "//<host>" when the scheme is empty,
// or "" when no host is set.
func (c *Config) BaseURL() string { return baseURL(c.String("host"), c.String("scheme")) }

// Handle is a pushed scope. Close pops it.
type Handle struct {
	c      *Config
	s      *scope
	closed bool
}

// Name returns the name of the scope this handle pushed.
func (h *Handle) Name() string { return h.s.name }

// Close pops the scope. Closing twice is a no-op. Closing a handle that is
// not the innermost scope fails, since scopes must nest.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	if h.c.top() != h.s {
		return ferrors.InternalError("config scopes closed out of order").
			WithContext("closing", h.s.name).
			WithContext("innermost", h.c.top().name).
			Build()
	}
	h.closed = true
	return h.c.pop()
}

// Context pushes the scope called name, creating it on first use and
// reusing the same values on later pushes. kv is written into the scope.
// The first push of a name broadcasts events.ContextEntered(name) on the
// bus; a failing handler leaves the stack unchanged.
func (c *Config) Context(ctx context.Context, name string, kv map[string]any) (*Handle, error) {
	if name == "" || name == GlobalScope {
		return nil, ferrors.NewError(ferrors.CategoryValidation, "invalid context name").
			WithContext("context", name).
			Build()
	}
	s, ok := c.named[name]
	if !ok {
		s = &scope{name: name, values: map[string]any{}, memo: map[string]any{}}
		c.named[name] = s
	}
	maps.Copy(s.values, kv)
	c.stack = append(c.stack, s)
	h := &Handle{c: c, s: s}

	if c.bus != nil {
		if _, _, err := c.bus.Once(ctx, events.ContextEntered(name), c); err != nil {
			_ = h.Close()
			return nil, err
		}
	}
	return h, nil
}

// With runs fn inside the named scope and always pops it afterwards.
func (c *Config) With(ctx context.Context, name string, kv map[string]any, fn func() error) (err error) {
	h, err := c.Context(ctx, name, kv)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := h.Close(); err == nil {
			err = cerr
		}
	}()
	return fn()
}

func (c *Config) pop() error {
	if len(c.stack) == 1 {
		return ErrPopGlobalScope
	}
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}

// ErrPopGlobalScope is returned when something tries to remove the global scope.
var ErrPopGlobalScope = ferrors.InternalError("cannot pop the global config scope").Build()

// Memo returns the value cached under key in the innermost scope, calling
// build on the first request. Values are per scope, so every context gets
// its own instance.
func (c *Config) Memo(key string, build func() (any, error)) (any, error) {
	s := c.top()
	if v, ok := s.memo[key]; ok {
		return v, nil
	}
	v, err := build()
	if err != nil {
		return nil, err
	}
	s.memo[key] = v
	return v, nil
}

// Forget drops key from every scope's memo cache.
func (c *Config) Forget(key string) {
	for _, s := range c.named {
		delete(s.memo, key)
	}
}

// ImportEnv copies every BANG_ variable from environ (KEY=VALUE pairs, as
// returned by os.Environ) into the global scope with the prefix stripped
// and the key lowercased. It returns the number of keys imported.
func (c *Config) ImportEnv(environ []string) int {
	n := 0
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) || len(k) == len(EnvPrefix) {
			continue
		}
		c.SetGlobal(strings.ToLower(strings.TrimPrefix(k, EnvPrefix)), v)
		n++
	}
	return n
}

// View returns an immutable snapshot of every key visible from the
// innermost scope.
func (c *Config) View() View {
	flat := make(map[string]any)
	for _, s := range c.stack {
		maps.Copy(flat, s.values)
	}
	return View{name: c.Name(), values: flat}
}

func baseURL(host, scheme string) string {
	if host == "" {
		return ""
	}
	if scheme == "" {
		return "//" + host
	}
	return scheme + "://" + host
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func asBool(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off", "":
			return false
		}
	}
	return def
}

func asInt(v any, def int) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n
		}
	}
	return def
}
