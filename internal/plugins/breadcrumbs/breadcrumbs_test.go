package breadcrumbs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/project"
	helpers "git.home.luguber.info/inful/bang/internal/testutil/testutils"
)

const trailTemplate = `<html><head><title>{{.Title}}</title></head><body><nav>{{range breadcrumbs .Item}}[{{.Name}}]{{end}}</nav>{{.Content}}</body></html>`

func buildSite(t *testing.T, config string) *helpers.SiteBuilder {
	t.Helper()
	site := helpers.NewSite(t).
		WithConfig(config).
		WithDefaultTemplates().
		WithTemplate("page", trailTemplate).
		WithPage("docs", "# Docs").
		WithPage("docs/guide", "# Guide").
		WithPage("docs/guide/intro", "# Intro").
		WithFile("input/docs/misc/note.txt", "loose file").
		WithPage("docs/misc/deep", "# Deep")

	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(New()))
	p, err := project.New(project.Options{Dir: site.Dir(), Plugins: reg, Environ: []string{}})
	require.NoError(t, err)
	require.NoError(t, p.Build(context.Background(), nil))
	return site
}

func TestJSONLD(t *testing.T) {
	out, err := JSONLD([]Crumb{{Name: "Home", URL: "https://example.com/"}, {Name: "A & B", URL: "https://example.com/ab/"}})
	require.NoError(t, err)
	assert.Equal(t, `<script type="application/ld+json">`+
		`{"@context":"https://schema.org","@type":"BreadcrumbList","itemListElement":[`+
		`{"@type":"ListItem","position":1,"name":"Home","item":"https://example.com/"},`+
		`{"@type":"ListItem","position":2,"name":"A \u0026 B","item":"https://example.com/ab/"}]}`+
		"</script>\n", out)
}

func TestTrailInTemplatesAndJSONLD(t *testing.T) {
	site := buildSite(t, "host: example.com\ntitle: Site\nplugins: [breadcrumbs]\n")
	out := site.Output()

	out.AssertFileContains("docs/guide/intro/index.html", "<nav>[Site][Docs][Guide][Intro]</nav>").
		AssertFileContains("docs/guide/intro/index.html", `{"@type":"ListItem","position":3,"name":"Guide","item":"https://example.com/docs/guide/"}`)
	out.AssertFileContains("docs/misc/deep/index.html", "<nav>[Site][Docs][Deep]</nav>")

	page := out.Read("docs/index.html")
	assert.Less(t, strings.Index(page, "application/ld+json"), strings.Index(page, "</head>"))
}

func TestJSONLDDisabled(t *testing.T) {
	site := buildSite(t, "host: example.com\nplugins: [breadcrumbs]\nbreadcrumbs:\n  jsonld: false\n  home: Start\n")
	site.Output().
		AssertFileContains("docs/guide/index.html", "<nav>[Start][Docs][Guide]</nav>").
		AssertFileNotContains("docs/guide/index.html", "application/ld+json")
}
