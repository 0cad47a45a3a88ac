// Package theme finds and executes the HTML templates of a site.
//
// A theme is a search path of template directories. A template named N is
// the file N.html in the first directory that has it. Files whose name
// starts with "_" are partials: every partial on the search path is parsed
// into each template, with earlier directories winning.
package theme

import (
	"bytes"
	"html/template"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/logfields"
)

// Ext is the template file extension.
const Ext = ".html"

// ErrTemplateNotFound is matched (errors.Is) when no directory on the
// search path holds the template.
var ErrTemplateNotFound = ferrors.ThemeError("template not found").Build()

// Theme is a named template search path.
type Theme struct {
	name     string
	dirs     []string
	inputDir string
	assetDir string
	logger   *slog.Logger

	mu    sync.Mutex
	funcs template.FuncMap
	cache map[string]*template.Template
}

// New returns a theme searching dirs in order.
func New(name string, dirs ...string) *Theme {
	return &Theme{
		name:   name,
		dirs:   slices.Clone(dirs),
		logger: slog.Default(),
		funcs:  maps.Clone(baseFuncs),
		cache:  map[string]*template.Template{},
	}
}

// Discover builds the theme of a project: the project's template/
// directory first, then themes/<name>/template/ when name is set.
func Discover(projectDir, name string, logger *slog.Logger) (*Theme, error) {
	dirs := []string{filepath.Join(projectDir, "template")}
	t := New(name)
	if logger != nil {
		t.logger = logger
	}
	if name != "" {
		root := filepath.Join(projectDir, "themes", name)
		st, err := os.Stat(root)
		if err != nil || !st.IsDir() {
			return nil, ferrors.ConfigError("theme not found").
				WithContext("theme", name).
				WithContext("path", root).Build()
		}
		dirs = append(dirs, filepath.Join(root, "template"))
		t.inputDir = filepath.Join(root, "input")
		t.assetDir = root
	}
	for _, d := range dirs {
		if st, err := os.Stat(d); err == nil && st.IsDir() {
			t.dirs = append(t.dirs, d)
		}
	}
	t.logger.Debug("Theme discovered", slog.String("theme", name), logfields.Count(len(t.dirs)))
	return t, nil
}

func (t *Theme) Name() string { return t.name }

// Dirs returns the search path.
func (t *Theme) Dirs() []string { return slices.Clone(t.dirs) }

// InputDir is the theme's own content tree, "" when there is none.
func (t *Theme) InputDir() string { return t.inputDir }

// AssetRoot is the directory whose assets/ subdirectory holds the theme's
// static files, "" when there is none.
func (t *Theme) AssetRoot() string { return t.assetDir }

// Funcs adds template functions. Templates parsed earlier are dropped so
// the next render sees the new functions.
func (t *Theme) Funcs(fm template.FuncMap) {
	t.mu.Lock()
	defer t.mu.Unlock()
	maps.Copy(t.funcs, fm)
	t.cache = map[string]*template.Template{}
}

// Reset drops parsed templates, for example after a template changed.
func (t *Theme) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache = map[string]*template.Template{}
}

// find returns the file holding template name.
func (t *Theme) find(name string) (string, bool) {
	for _, d := range t.dirs {
		p := filepath.Join(d, name+Ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

// HasTemplate reports whether name exists on the search path.
func (t *Theme) HasTemplate(name string) bool {
	_, ok := t.find(name)
	return ok
}

// First returns the first of names that exists.
func (t *Theme) First(names ...string) (string, bool) {
	for _, n := range names {
		if t.HasTemplate(n) {
			return n, true
		}
	}
	return "", false
}

func (t *Theme) partials() []string {
	var out []string
	// Later directories first, so definitions from earlier ones win.
	for i := len(t.dirs) - 1; i >= 0; i-- {
		matches, _ := filepath.Glob(filepath.Join(t.dirs[i], "_*"+Ext))
		slices.Sort(matches)
		out = append(out, matches...)
	}
	return out
}

func (t *Theme) load(name string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tmpl, ok := t.cache[name]; ok {
		return tmpl, nil
	}
	file, ok := t.find(name)
	if !ok {
		return nil, ferrors.ThemeError(ErrTemplateNotFound.Message()).
			WithContext("template", name).
			WithContext("theme", t.name).Build()
	}
	tmpl := template.New(name).Funcs(t.funcs)
	for _, p := range append(t.partials(), file) {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read template").
				WithContext("path", p).Build()
		}
		target := tmpl
		if p != file {
			target = tmpl.New(strings.TrimSuffix(filepath.Base(p), Ext))
		}
		if _, err := target.Parse(string(src)); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryTheme, "parse template").
				WithContext("path", p).Build()
		}
	}
	t.cache[name] = tmpl
	return tmpl, nil
}

// RenderTemplate executes template name with data.
func (t *Theme) RenderTemplate(name string, data any) (string, error) {
	tmpl, err := t.load(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTheme, "execute template").
			WithContext("template", name).Build()
	}
	return buf.String(), nil
}

// OutputTemplate renders name and writes the result to path.
func (t *Theme) OutputTemplate(name, path string, data any) error {
	out, err := t.RenderTemplate(name, data)
	if err != nil {
		return err
	}
	return WriteFile(path, out)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create output directory").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output file").
			WithContext("path", path).Build()
	}
	return nil
}
