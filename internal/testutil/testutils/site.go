// Package helpers builds bang project trees for tests.
package helpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Minimal templates covering pages, posts and the paginated index.
const (
	PageTemplate  = `<html><head><title>{{.Title}}</title></head><body><h1>{{.Title}}</h1>{{.Content}}</body></html>`
	IndexTemplate = `<html><head><title>{{.Site.Title}}</title></head><body>{{range .Items}}<a href="{{url .}}">{{(compile .).Title}}</a>{{end}}{{with .PrevURL}}<a rel="prev" href="{{.}}">older</a>{{end}}</body></html>`
)

// SiteBuilder provides a fluent interface for creating test projects.
type SiteBuilder struct {
	t   *testing.T
	dir string
}

// NewSite creates an empty project in a temporary directory.
func NewSite(t *testing.T) *SiteBuilder {
	t.Helper()
	return &SiteBuilder{t: t, dir: t.TempDir()}
}

// Dir is the project root.
func (sb *SiteBuilder) Dir() string { return sb.dir }

// OutputDir is the default output directory.
func (sb *SiteBuilder) OutputDir() string { return filepath.Join(sb.dir, "output") }

// WithFile writes content to rel below the project root.
func (sb *SiteBuilder) WithFile(rel, content string) *SiteBuilder {
	sb.t.Helper()
	full := filepath.Join(sb.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		sb.t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		sb.t.Fatalf("write %s: %v", rel, err)
	}
	return sb
}

// WithConfig writes bang.yaml.
func (sb *SiteBuilder) WithConfig(yaml string) *SiteBuilder {
	return sb.WithFile("bang.yaml", yaml)
}

// WithPost writes input/<rel>/post.md.
func (sb *SiteBuilder) WithPost(rel, body string) *SiteBuilder {
	return sb.WithFile(filepath.Join("input", rel, "post.md"), body)
}

// WithPage writes input/<rel>/index.md.
func (sb *SiteBuilder) WithPage(rel, body string) *SiteBuilder {
	return sb.WithFile(filepath.Join("input", rel, "index.md"), body)
}

// WithTemplate writes template/<name>.html.
func (sb *SiteBuilder) WithTemplate(name, body string) *SiteBuilder {
	return sb.WithFile(filepath.Join("template", name+".html"), body)
}

// WithDefaultTemplates writes the page and index templates.
func (sb *SiteBuilder) WithDefaultTemplates() *SiteBuilder {
	return sb.WithTemplate("page", PageTemplate).WithTemplate("index", IndexTemplate)
}

// Output returns assertions rooted at the output directory.
func (sb *SiteBuilder) Output() *FileAssertions {
	return NewFileAssertions(sb.t, sb.OutputDir())
}
