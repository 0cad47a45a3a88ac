package project

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/events"
	"git.home.luguber.info/inful/bang/internal/metrics"
	"git.home.luguber.info/inful/bang/internal/plugin"
	"git.home.luguber.info/inful/bang/internal/plugins/blog"
	"git.home.luguber.info/inful/bang/internal/plugins/sitemap"
	"git.home.luguber.info/inful/bang/internal/registry"
	helpers "git.home.luguber.info/inful/bang/internal/testutil/testutils"
)

type recorder struct {
	metrics.NoopRecorder
	mu       sync.Mutex
	outcomes []metrics.Outcome
	rendered int
}

func (r *recorder) IncBuildOutcome(o metrics.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recorder) IncRendered(string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rendered++
}

func plugins(t *testing.T) *plugin.Registry {
	t.Helper()
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(blog.New()))
	require.NoError(t, reg.Register(sitemap.New()))
	return reg
}

func newProject(t *testing.T, site *helpers.SiteBuilder, rec metrics.Recorder) *Project {
	t.Helper()
	p, err := New(Options{Dir: site.Dir(), Plugins: plugins(t), Recorder: rec, Environ: []string{}})
	require.NoError(t, err)
	return p
}

func TestNewMissingDirectory(t *testing.T) {
	_, err := New(Options{Dir: filepath.Join(t.TempDir(), "missing")})
	require.ErrorIs(t, err, config.ErrProjectNotFound)
}

func TestNewOverridesAndOutputDir(t *testing.T) {
	site := helpers.NewSite(t).WithConfig("host: example.com\noutput: public\n")
	p, err := New(Options{
		Dir:       site.Dir(),
		Overrides: map[string]any{config.KeyScheme: "https"},
		Environ:   []string{"BANG_TITLE=From env"},
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(site.Dir(), "public"), p.OutputDir())
	assert.Equal(t, "https://example.com", p.Config().BaseURL())
	assert.Equal(t, "From env", p.Config().String(config.KeyTitle))
	assert.Equal(t, []string{HTMLContext}, p.Outputs())
}

func TestSinglePost(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\nscheme: https\nplugins: [blog, sitemap]\n").
		WithDefaultTemplates().
		WithPost("hello", "# Hello\n\nworld.")
	rec := &recorder{}
	p := newProject(t, site, rec)
	require.NoError(t, p.Build(context.Background(), nil))

	page := site.Output().Read("hello/index.html")
	assert.Contains(t, page, "<p>world.</p>")
	assert.Contains(t, page, "<title>Hello</title>")
	assert.Equal(t, 1, strings.Count(page, "<h1>"), "heading is stripped from the body")
	site.Output().AssertFileContains(sitemap.File, "https://example.com/hello")
	site.Output().AssertFileContains("index.html", `href="https://example.com/hello/"`)

	assert.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess}, rec.outcomes)
	assert.Equal(t, 2, rec.rendered)
}

func TestPartialRebuild(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\nplugins: [blog, sitemap]\n").
		WithDefaultTemplates().
		WithPost("hello", "# Hello\n\nfirst.").
		WithPost("second", "# Second\n\nfirst.").
		WithPost("third", "# Third\n\nfirst.")
	rec := &recorder{}
	p := newProject(t, site, rec)
	ctx := context.Background()
	require.NoError(t, p.Build(ctx, nil))
	site.Output().AssertFileExists(sitemap.File)

	require.NoError(t, os.Remove(filepath.Join(site.OutputDir(), sitemap.File)))
	for _, rel := range []string{"hello", "second", "third"} {
		site.WithPost(rel, "# "+rel+"\n\nupdated.")
	}
	require.NoError(t, p.Build(ctx, regexp.MustCompile("^hello")))

	out := site.Output()
	out.AssertFileContains("hello/index.html", "<p>updated.</p>").
		AssertFileContains("second/index.html", "<p>first.</p>").
		AssertFileContains("third/index.html", "<p>first.</p>").
		AssertFileExists("index.html").
		AssertFileNotExists(sitemap.File)
	assert.Equal(t, []metrics.Outcome{metrics.OutcomeSuccess, metrics.OutcomePartial}, rec.outcomes)
}

func TestFullRebuildClearsOutput(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("plugins: [blog]\n").
		WithDefaultTemplates().
		WithPost("hello", "# Hello")
	p := newProject(t, site, nil)
	ctx := context.Background()
	require.NoError(t, p.Build(ctx, nil))

	stale := filepath.Join(site.OutputDir(), "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	require.NoError(t, p.Rebuild(ctx))
	site.Output().AssertFileNotExists("stale.txt").AssertFileExists("hello/index.html")
}

func TestPagination(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("plugins: [blog]\npage_limit: 1\n").
		WithDefaultTemplates().
		WithPost("2024-01-01-a", "# A").
		WithPost("2024-01-02-b", "# B").
		WithPost("2024-01-03-c", "# C")
	p := newProject(t, site, nil)
	require.NoError(t, p.Build(context.Background(), nil))

	out := site.Output()
	out.AssertFileContains("index.html", `<a href="/2024-01-03-c/">C</a>`).
		AssertFileContains("index.html", `<a rel="prev" href="/page/2/">`)
	out.AssertFileContains("page/2/index.html", `<a href="/2024-01-02-b/">B</a>`).
		AssertFileContains("page/2/index.html", `href="/page/3/"`)
	out.AssertFileContains("page/3/index.html", `<a href="/2024-01-01-a/">A</a>`).
		AssertFileNotContains("page/3/index.html", `rel="prev"`)
}

func TestRootItemReplacesFirstIndexPage(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("plugins: [blog]\npage_limit: 1\n").
		WithDefaultTemplates().
		WithFile("input/index.md", "# Home\n\nWelcome.").
		WithPost("2024-01-01-a", "# A").
		WithPost("2024-01-02-b", "# B")
	p := newProject(t, site, nil)
	require.NoError(t, p.Build(context.Background(), nil))

	site.Output().
		AssertFileContains("index.html", "<p>Welcome.</p>").
		AssertFileContains("page/2/index.html", `<a href="/2024-01-01-a/">A</a>`)
}

func TestMissingTemplateSkipsItem(t *testing.T) {
	site := helpers.NewSite(t).
		WithTemplate("index", helpers.IndexTemplate).
		WithPage("about", "# About").
		WithFile("input/about/photo.jpg", "jpeg")
	p := newProject(t, site, nil)
	require.NoError(t, p.Build(context.Background(), nil))

	site.Output().
		AssertFileNotExists("about/index.html").
		AssertFileExists("about/photo.jpg")
}

func TestAssetsInjected(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("assets:\n  body_script: console.log(1)\n").
		WithDefaultTemplates().
		WithFile("assets/site.css", "body{}").
		WithPage("about", "# About")
	p := newProject(t, site, nil)
	require.NoError(t, p.Build(context.Background(), nil))

	as, ok := p.Assets().Get("site.css")
	require.True(t, ok)
	require.True(t, strings.HasPrefix(as.URL, "/assets/"))
	site.Output().
		AssertFileExists("assets/"+as.OutName).
		AssertFileContains("about/index.html", `<link rel="stylesheet" href="`+as.URL+`">`+"\n</head>").
		AssertFileContains("about/index.html", "<script>\nconsole.log(1)\n</script>\n</body>")
}

func TestEventOrder(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("plugins: [blog]\n").
		WithDefaultTemplates().
		WithPost("hello", "# Hello")
	p := newProject(t, site, nil)

	var seen []string
	record := func(_ context.Context, name string, _ any) (any, error) {
		seen = append(seen, name)
		return nil, nil
	}
	for _, name := range []string{
		events.ConfigureProject, events.ConfigureTheme, events.ConfigurePlugins, events.ConfigureAssets,
		events.CompileStart, events.CompileFinish,
		events.OutputStart, events.ContextEntered(HTMLContext), events.OutputFinish,
	} {
		p.Bus().Bind(name, "test", record)
	}
	require.NoError(t, p.Build(context.Background(), nil))

	assert.Equal(t, []string{
		events.ConfigureProject, events.ConfigureTheme, events.ConfigurePlugins, events.ConfigureAssets,
		events.CompileStart, events.CompileFinish,
		events.OutputStart, events.ContextEntered(HTMLContext), events.OutputFinish,
	}, seen)
}

func TestOutputContextValues(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\ncontexts:\n  html:\n    scheme: https\n").
		WithDefaultTemplates().
		WithPage("about", "See [home](/).")
	p := newProject(t, site, nil)

	var order []string
	require.NoError(t, p.RegisterOutput("extra", func(_ context.Context, host plugin.Host, _ plugin.Run) error {
		order = append(order, host.Config().Name())
		return nil
	}, registry.After(HTMLContext)))
	require.NoError(t, p.Build(context.Background(), nil))

	assert.Equal(t, []string{"extra"}, order)
	site.Output().AssertFileContains("about/index.html", `href="https://example.com/"`)
	assert.Equal(t, "", p.Config().String(config.KeyScheme), "context values do not leak into the global scope")
}

func TestPhasesOutOfOrder(t *testing.T) {
	site := helpers.NewSite(t)
	p := newProject(t, site, nil)
	ctx := context.Background()
	require.Error(t, p.Load(ctx))
	require.NoError(t, p.Configure(ctx))
	require.Error(t, p.Compile(ctx))
	require.Error(t, p.Output(ctx, nil))
}

type countingFetcher struct {
	mu    sync.Mutex
	calls int
}

func (f *countingFetcher) OEmbed(_ context.Context, _, rawURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return `<blockquote class="twitter-tweet"><a href="` + rawURL + `">tweet</a></blockquote>`, nil
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, p)
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestRepeatedBuildsAreIdentical(t *testing.T) {
	site := helpers.NewSite(t).
		WithConfig("host: example.com\nplugins: [blog, sitemap]\n").
		WithDefaultTemplates().
		WithPost("a", "# A\n\nfirst[^n] second[^n]\n\n[^n]: one\n[^n]: two").
		WithPost("b", "# B\n\nonly[^n]\n\n[^n]: note").
		WithPost("c", "# C\n\nlink [x][n]\n\n[n]: http://c.example").
		WithPost("tweet", "# Tweet\n\nhttps://twitter.com/someone/status/12345\n")

	build := func(f *countingFetcher) map[string]string {
		p, err := New(Options{Dir: site.Dir(), Plugins: plugins(t), Fetcher: f, Environ: []string{}})
		require.NoError(t, err)
		require.NoError(t, p.Build(context.Background(), nil))
		return snapshot(t, site.OutputDir())
	}

	first := &countingFetcher{}
	out1 := build(first)
	assert.Equal(t, 1, first.calls)
	require.FileExists(t, filepath.Join(site.Dir(), "input", "tweet", "_embed", "twitter.json"))

	second := &countingFetcher{}
	out2 := build(second)
	assert.Zero(t, second.calls, "cached embeds are not fetched again")
	assert.Equal(t, out1, out2)

	a := out1["a/index.html"]
	assert.Contains(t, a, `id="fn-a-1"`)
	assert.Contains(t, a, `id="fn-a-2"`)
	assert.Contains(t, out1["b/index.html"], `id="fn-b-1"`)
	assert.Contains(t, out1["c/index.html"], `href="http://c.example"`)
	assert.Contains(t, out1["tweet/index.html"], `class="twitter-tweet"`)
	_, cached := out1["tweet/_embed/twitter.json"]
	assert.False(t, cached, "embed cache stays out of the output")
}
