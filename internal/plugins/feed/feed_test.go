package feed

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/plugins/blog"
	"git.home.luguber.info/inful/bang/internal/project"
	helpers "git.home.luguber.info/inful/bang/internal/testutil/testutils"
)

func newProject(t *testing.T, site *helpers.SiteBuilder) *project.Project {
	t.Helper()
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(blog.New()))
	require.NoError(t, reg.Register(New()))
	p, err := project.New(project.Options{Dir: site.Dir(), Plugins: reg, Environ: []string{}})
	require.NoError(t, err)
	return p
}

func TestGUIDStable(t *testing.T) {
	a := GUID("https://example.com/hello/")
	assert.Equal(t, a, GUID("https://example.com/hello/"))
	assert.NotEqual(t, a, GUID("https://example.com/other/"))
	assert.True(t, strings.HasPrefix(a, "urn:uuid:"))
}

func TestFeedOnFullBuild(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\ntitle: Notes\nplugins: [feed]\n").
		WithDefaultTemplates().
		WithPost("2024-01-01-first", "# First\n\nSee [about](/about/).").
		WithPost("2024-02-01-second", "# Second\n\nWorld.").
		WithPage("about", "# About\n\nMe.")
	p := newProject(t, site)
	require.NoError(t, p.Build(context.Background(), nil))

	out := site.Output().Read(File)
	assert.Contains(t, out, `<rss version="2.0"`)
	assert.Contains(t, out, "<title>Notes</title>")
	assert.Contains(t, out, "<link>https://example.com/2024-02-01-second/</link>")
	assert.Contains(t, out, GUID("https://example.com/2024-02-01-second/"))
	assert.Contains(t, out, "https://example.com/about/", "links inside entries are absolute")
	assert.NotContains(t, out, "<title>About</title>", "pages are not in the feed")
	assert.Less(t, strings.Index(out, "Second"), strings.Index(out, "First"), "newest first")

	// The html context keeps the protocol-relative site URLs.
	site.Output().AssertFileContains("2024-01-01-first/index.html", `href="//example.com/about/"`)
}

func TestFeedSkippedOnPartialBuild(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\nplugins: [feed]\n").
		WithDefaultTemplates().
		WithPost("hello", "# Hello\n\nworld.")
	p := newProject(t, site)
	require.NoError(t, p.Build(context.Background(), regexp.MustCompile("^hello")))
	site.Output().AssertFileExists("hello/index.html").AssertFileNotExists(File)
}
