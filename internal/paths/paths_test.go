package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestWalkSkipsPrivateAndSorts(t *testing.T) {
	root := t.TempDir()
	for _, d := range []string{"b", "a/x", "_drafts/one", ".git/objects", "a/_embed", "c d"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}

	var seen []string
	require.NoError(t, Walk(root, func(_, rel string) error {
		seen = append(seen, rel)
		return nil
	}))
	require.Equal(t, []string{"", "a", "a/x", "b", "c d"}, seen)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "post.md"), "x")
	writeFile(t, filepath.Join(dir, "a.png"), "x")
	writeFile(t, filepath.Join(dir, "_notes.md"), "x")
	writeFile(t, filepath.Join(dir, ".DS_Store"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	files, err := Files(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"a.png", "post.md"}, files)
}

func TestCopyDirAndClear(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(src, "css", "site.css"), "body{}")
	writeFile(t, filepath.Join(src, "_private", "x"), "x")
	writeFile(t, filepath.Join(src, ".hidden"), "x")

	require.NoError(t, CopyDir(src, dst))
	b, err := os.ReadFile(filepath.Join(dst, "css", "site.css"))
	require.NoError(t, err)
	require.Equal(t, "body{}", string(b))
	require.NoFileExists(t, filepath.Join(dst, ".hidden"))
	require.NoDirExists(t, filepath.Join(dst, "_private"))

	require.NoError(t, Clear(dst))
	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Hello World":     "hello-world",
		"  Two   Spaces ": "two-spaces",
		"Ünïcode\tTab":    "ünïcode-tab",
		"already-slug":    "already-slug",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			require.Equal(t, want, Slug(in))
		})
	}
	require.Equal(t, "2024/my-trip", OutputRel("2024/My Trip"))
	require.Equal(t, "", OutputRel(""))
}

func TestRelArithmetic(t *testing.T) {
	rel, err := Rel("/a", "/a/b/c")
	require.NoError(t, err)
	require.Equal(t, "b/c", rel)
	rel, err = Rel("/a", "/a")
	require.NoError(t, err)
	require.Equal(t, "", rel)

	require.Equal(t, 2, Depth("b/c"))
	require.Equal(t, 0, Depth(""))
	require.Equal(t, "b", Parent("b/c"))
	require.Equal(t, "", Parent("b"))
	require.True(t, IsPrivatePath("a/_embed/x"))
	require.False(t, IsPrivatePath("a/b"))
}
