package theme

import (
	"errors"
	"html/template"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverSearchOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "template", "page.html"), `site {{template "_footer" .}}`)
	writeFile(t, filepath.Join(dir, "themes", "plain", "template", "page.html"), `theme`)
	writeFile(t, filepath.Join(dir, "themes", "plain", "template", "list.html"), `list {{template "_footer" .}}`)
	writeFile(t, filepath.Join(dir, "themes", "plain", "template", "_footer.html"), `theme-footer`)
	writeFile(t, filepath.Join(dir, "template", "_footer.html"), `site-footer`)

	th, err := Discover(dir, "plain", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain", th.Name())
	assert.Len(t, th.Dirs(), 2)
	assert.Equal(t, filepath.Join(dir, "themes", "plain", "input"), th.InputDir())

	out, err := th.RenderTemplate("page", nil)
	require.NoError(t, err)
	assert.Equal(t, "site site-footer", out)

	out, err = th.RenderTemplate("list", nil)
	require.NoError(t, err)
	assert.Equal(t, "list site-footer", out)
}

func TestDiscoverMissingTheme(t *testing.T) {
	_, err := Discover(t.TempDir(), "nope", nil)
	require.Error(t, err)
}

func TestTemplateNotFound(t *testing.T) {
	th := New("empty", t.TempDir())
	assert.False(t, th.HasTemplate("page"))
	_, err := th.RenderTemplate("page", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTemplateNotFound))
}

func TestFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), `p`)
	th := New("t", dir)
	name, ok := th.First("post", "page")
	assert.True(t, ok)
	assert.Equal(t, "page", name)
	_, ok = th.First("post")
	assert.False(t, ok)
}

func TestFuncs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "f.html"),
		`{{join "a" "b" 1}}|{{safeHTML .Raw}}|{{formatTime .When "2006-01-02"}}|{{with map "k" "v"}}{{.k}}{{end}}|{{len (list 1 2 3)}}|{{shout "x"}}`)
	th := New("t", dir)
	th.Funcs(template.FuncMap{"shout": func(s string) string { return s + "!" }})

	out, err := th.RenderTemplate("f", map[string]any{
		"Raw":  "<b>x</b>",
		"When": time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "a/b/1|<b>x</b>|2024-03-01|v|3|x!", out)
}

func TestOutputTemplate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), `<p>{{.}}</p>`)
	th := New("t", dir)
	target := filepath.Join(t.TempDir(), "a", "b", "index.html")
	require.NoError(t, th.OutputTemplate("page", target, "hi"))
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(got))
}

func TestResetReloads(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page.html"), `one`)
	th := New("t", dir)
	out, _ := th.RenderTemplate("page", nil)
	assert.Equal(t, "one", out)
	writeFile(t, filepath.Join(dir, "page.html"), `two`)
	out, _ = th.RenderTemplate("page", nil)
	assert.Equal(t, "one", out)
	th.Reset()
	out, _ = th.RenderTemplate("page", nil)
	assert.Equal(t, "two", out)
}
