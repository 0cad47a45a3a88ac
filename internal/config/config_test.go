package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bang/internal/events"
)

func TestSetGetWalksStack(t *testing.T) {
	c := New(nil)
	require.Nil(t, c.Get("missing"))
	c.Set("k", "global")

	h, err := c.Context(context.Background(), "feed", map[string]any{"scheme": "https"})
	require.NoError(t, err)
	require.Equal(t, "global", c.Get("k"))
	require.Equal(t, "https", c.String("scheme"))
	require.Equal(t, "feed", c.Name())
	require.Equal(t, 2, c.Depth())

	c.Set("k", "feed")
	require.Equal(t, "feed", c.Get("k"))
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	require.Equal(t, "global", c.Get("k"))
	require.Equal(t, "", c.String("scheme"))
	require.Equal(t, GlobalScope, c.Name())
}

func TestReopenedContextKeepsValues(t *testing.T) {
	c := New(nil)
	c.Set("k", "outer")
	for i := range 2 {
		err := c.With(context.Background(), "amp", nil, func() error {
			if i == 0 {
				c.Set("k", "inner")
			}
			require.Equal(t, "inner", c.Get("k"))
			return nil
		})
		require.NoError(t, err)
		require.Equal(t, "outer", c.Get("k"))
	}
}

func TestGlobalScopeCannotBePopped(t *testing.T) {
	c := New(nil)
	require.ErrorIs(t, c.pop(), ErrPopGlobalScope)
	require.Equal(t, 1, c.Depth())

	_, err := c.Context(context.Background(), GlobalScope, nil)
	require.Error(t, err)
}

func TestScopesMustNest(t *testing.T) {
	c := New(nil)
	outer, err := c.Context(context.Background(), "a", nil)
	require.NoError(t, err)
	inner, err := c.Context(context.Background(), "b", nil)
	require.NoError(t, err)

	require.Error(t, outer.Close())
	require.NoError(t, inner.Close())
	require.NoError(t, outer.Close())
	require.Equal(t, 1, c.Depth())
}

func TestContextEventFiresOnce(t *testing.T) {
	bus := events.NewBus()
	n := 0
	bus.Bind(events.ContextEntered("html"), "t", func(context.Context, string, any) (any, error) {
		n++
		return nil, nil
	})
	c := New(bus)
	for range 3 {
		require.NoError(t, c.With(context.Background(), "html", nil, func() error { return nil }))
	}
	require.Equal(t, 1, n)
}

func TestContextEventFailureUnwinds(t *testing.T) {
	bus := events.NewBus()
	boom := errors.New("boom")
	bus.Bind(events.ContextEntered("feed"), "t", func(context.Context, string, any) (any, error) {
		return nil, boom
	})
	c := New(bus)
	_, err := c.Context(context.Background(), "feed", nil)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, c.Depth())
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host, scheme, want string
	}{
		{"", "https", ""},
		{"example.com", "https", "https://example.com"},
		{"ex.com", "", "//ex.com"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := New(nil)
			c.Set(KeyHost, tt.host)
			c.Set(KeyScheme, tt.scheme)
			require.Equal(t, tt.want, c.BaseURL())
			require.Equal(t, tt.want, c.View().BaseURL())
		})
	}
}

func TestImportEnv(t *testing.T) {
	c := New(nil)
	n := c.ImportEnv([]string{"BANG_HOST=example.com", "BANG_Page_Limit=3", "HOME=/root", "BANG_=x", "BANGX=y"})
	require.Equal(t, 2, n)
	require.Equal(t, "example.com", c.String("host"))
	require.Equal(t, 3, c.Int("page_limit", 10))
}

func TestMemoIsPerScope(t *testing.T) {
	c := New(nil)
	builds := 0
	build := func() (any, error) { builds++; return builds, nil }

	v, err := c.Memo(KeyMarkdown, build)
	require.NoError(t, err)
	require.Equal(t, 1, v)
	v, _ = c.Memo(KeyMarkdown, build)
	require.Equal(t, 1, v)

	require.NoError(t, c.With(context.Background(), "feed", nil, func() error {
		v, err := c.Memo(KeyMarkdown, build)
		require.Equal(t, 2, v)
		return err
	}))
	c.Forget(KeyMarkdown)
	v, _ = c.Memo(KeyMarkdown, build)
	require.Equal(t, 3, v)
}

func TestTypedGetters(t *testing.T) {
	c := New(nil)
	require.True(t, c.Bool(KeyLazyloadImages, false))
	c.Set("flag", "no")
	require.False(t, c.Bool("flag", true))
	c.Set("flag", "maybe")
	require.True(t, c.Bool("flag", true))
	c.Set("n", 2.0)
	require.Equal(t, 2, c.Int("n", 0))
	require.Equal(t, 7, c.Int("absent", 7))
}

func TestViewIsSnapshot(t *testing.T) {
	c := New(nil)
	c.Set("k", "before")
	v := c.View()
	c.Set("k", "after")
	require.Equal(t, "before", v.String("k"))
	require.Equal(t, GlobalScope, v.Name())
	require.True(t, v.Has("k"))
	require.False(t, v.Has("absent"))
}

func TestLoadProject(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("BANG_TEST_HOST=env.example\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, ProjectFileName), []byte(`
host: ${BANG_TEST_HOST}
scheme: https
plugins: [blog, sitemap]
page_limit: 5
embed:
  retries: 0
contexts:
  feed:
    scheme: https
`), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BANG_TEST_HOST") })

	pf, err := LoadProject(root)
	require.NoError(t, err)
	require.Equal(t, []string{"blog", "sitemap"}, pf.Plugins)
	require.Equal(t, "https", pf.ContextValues("feed")["scheme"])

	c := New(nil)
	pf.Apply(c)
	require.Equal(t, "https://env.example", c.BaseURL())
	require.Equal(t, 5, c.Int(KeyPageLimit, 10))
	require.Equal(t, 0, c.Int(KeyEmbedRetries, 2))
	require.Nil(t, c.Get("plugins"))
}

func TestLoadProjectMissingRoot(t *testing.T) {
	_, err := LoadProject(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestLoadProjectWithoutFile(t *testing.T) {
	pf, err := LoadProject(t.TempDir())
	require.NoError(t, err)
	require.Empty(t, pf.Plugins)
}
