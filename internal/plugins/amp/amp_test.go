package amp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/project"
	helpers "git.home.luguber.info/inful/bang/internal/testutil/testutils"
)

const ampTemplate = `<html amp><head><link rel="canonical" href="{{.Canonical}}"></head><body>{{.Content}}</body></html>`

func build(t *testing.T, site *helpers.SiteBuilder) *project.Project {
	t.Helper()
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(New()))
	p, err := project.New(project.Options{Dir: site.Dir(), Plugins: reg, Environ: []string{}})
	require.NoError(t, err)
	require.NoError(t, p.Build(context.Background(), nil))
	return p
}

func TestURL(t *testing.T) {
	it := content.NewItem(content.Page{}, nil, "/in/hello", "hello", "index.md", nil)
	assert.Equal(t, "https://example.com/hello/amp/", URL(it, "https://example.com"))
}

func TestAMPPages(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\nplugins: [amp]\n").
		WithDefaultTemplates().
		WithTemplate(Template, ampTemplate).
		WithFile("assets/site.css", "body{}").
		WithPage("hello", "# Hello\n\n![cat](cat.png)")
	p := build(t, site)
	assert.Equal(t, []string{"html", Context}, p.Outputs())

	out := site.Output()
	out.AssertFileContains("hello/amp/index.html", `<amp-img src="//example.com/hello/cat.png"`).
		AssertFileContains("hello/amp/index.html", `<link rel="canonical" href="//example.com/hello/">`).
		AssertFileNotContains("hello/amp/index.html", `rel="stylesheet"`)
	out.AssertFileContains("hello/index.html", `<link rel="amphtml" href="//example.com/hello/amp/">`).
		AssertFileContains("hello/index.html", `rel="stylesheet"`).
		AssertFileContains("hello/index.html", `<img src="//example.com/hello/cat.png"`)
}

func TestAMPWithoutTemplate(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("plugins: [amp]\n").
		WithDefaultTemplates().
		WithPage("hello", "# Hello")
	build(t, site)

	site.Output().AssertFileExists("hello/index.html").
		AssertFileNotExists("hello/amp/index.html").
		AssertFileNotContains("hello/index.html", "amphtml")
}

func TestAMPVariantFilter(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("plugins: [amp]\namp:\n  variants: [post]\n").
		WithDefaultTemplates().
		WithTemplate(Template, ampTemplate).
		WithPage("hello", "# Hello")
	build(t, site)

	site.Output().AssertFileNotExists("hello/amp/index.html")
}
