package assets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(root, Dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}

func names(as []*Asset) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.Name
	}
	return out
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindCSS, KindOf("site.CSS"))
	assert.Equal(t, KindJS, KindOf("https://cdn.example.com/x/app.js"))
	assert.Equal(t, KindOther, KindOf("logo.png"))
}

func TestAddDirPrecedence(t *testing.T) {
	project, theme := t.TempDir(), t.TempDir()
	seed(t, project, map[string]string{"site.css": "project", "_draft.css": "private"})
	seed(t, theme, map[string]string{"site.css": "theme", "theme.js": "js"})

	a := New(nil)
	require.NoError(t, a.AddDir(project))
	require.NoError(t, a.AddDir(theme))
	require.NoError(t, a.AddDir(t.TempDir()))
	assert.Equal(t, 2, a.Len())

	css, ok := a.Get("site.css")
	require.True(t, ok)
	assert.Equal(t, filepath.Join(project, Dir, "site.css"), css.Source)
	_, ok = a.Get("_draft.css")
	assert.False(t, ok)
}

func TestCompileAndOutput(t *testing.T) {
	root := t.TempDir()
	seed(t, root, map[string]string{"site.css": "body{}", "app.js": "x()"})
	a := New(nil)
	require.NoError(t, a.AddDir(root))
	require.NoError(t, a.Add("https://cdn.example.com/lib.js"))
	require.NoError(t, a.Compile())

	css, _ := a.Get("site.css")
	assert.Len(t, css.Hash, hashLen)
	assert.Equal(t, css.Hash+".site.css", css.OutName)

	remote, ok := a.Get("https://cdn.example.com/lib.js")
	require.True(t, ok)
	assert.Empty(t, remote.OutName, "remote assets are not hashed")

	out := t.TempDir()
	n, err := a.Output(out, "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	data, err := os.ReadFile(filepath.Join(out, Dir, css.OutName))
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(data))
	assert.Equal(t, "https://example.com/assets/"+css.OutName, css.URL)
	assert.Equal(t, "https://cdn.example.com/lib.js", remote.URL)

	_, err = a.Output(out, "")
	require.NoError(t, err)
	assert.Equal(t, "/assets/"+css.OutName, css.URL)
}

func TestHashFollowsContent(t *testing.T) {
	root := t.TempDir()
	seed(t, root, map[string]string{"a.css": "one"})
	a := New(nil)
	require.NoError(t, a.AddDir(root))
	require.NoError(t, a.Compile())
	first, _ := a.Get("a.css")
	h1 := first.Hash

	seed(t, root, map[string]string{"a.css": "two"})
	require.NoError(t, a.Compile())
	assert.NotEqual(t, h1, first.Hash)
}

func TestOrder(t *testing.T) {
	a := New(nil)
	for _, n := range []string{"z.css", "theme.css", "reset.css", "print.css", "app.js", "vendor.js"} {
		a.assets = append(a.assets, &Asset{Name: n, Kind: KindOf(n)})
	}
	require.NoError(t, a.Order([]string{`^reset`, `^vendor`}, []string{`^theme`}, []string{`^print`}))
	assert.Equal(t,
		[]string{"reset.css", "vendor.js", "theme.css", "z.css", "app.js", "print.css"},
		names(a.Ordered()))

	require.Error(t, a.Order([]string{"("}, nil, nil))
}

func TestHeadAndBodyHTML(t *testing.T) {
	a := New(nil)
	a.assets = []*Asset{
		{Name: "site.css", Kind: KindCSS, URL: "/assets/abc.site.css"},
		{Name: "app.js", Kind: KindJS, URL: "/assets/def.app.js"},
		{Name: "logo.png", Kind: KindOther, URL: "/assets/1.logo.png"},
	}
	assert.Equal(t,
		"<link rel=\"stylesheet\" href=\"/assets/abc.site.css\">\n<script src=\"/assets/def.app.js\"></script>\n",
		a.HeadHTML())
	assert.Empty(t, a.BodyHTML())

	a.SetBodyScript("init();")
	assert.Equal(t, "<script>\ninit();\n</script>\n", a.BodyHTML())
}

func TestInject(t *testing.T) {
	doc := "<html><head><title>t</title></head><body><p>x</p><pre>&lt;/body&gt;</pre></body></html>"
	out, err := Inject(doc, "<link>", "<script></script>")
	require.NoError(t, err)
	assert.Equal(t,
		"<html><head><title>t</title><link></head><body><p>x</p><pre>&lt;/body&gt;</pre><script></script></body></html>",
		out)

	out, err = Inject("<p>fragment</p>", "<link>", "<script></script>")
	require.NoError(t, err)
	assert.Equal(t, "<p>fragment</p>", out)

	out, err = Inject(doc, "", "")
	require.NoError(t, err)
	assert.Equal(t, doc, out)
}
