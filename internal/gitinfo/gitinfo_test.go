package gitinfo

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	helpers "git.home.luguber.info/inful/bang/internal/testutil/testutils"
)

func TestLastModified(t *testing.T) {
	root := t.TempDir()
	repo := helpers.InitGitRepo(t, root)

	t1 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	t3 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	helpers.CommitFile(t, repo, "input/hello/post.md", "# Hello", t1)
	helpers.CommitFile(t, repo, "input/about/index.md", "# About", t2)
	helpers.CommitFile(t, repo, "input/hello/post.md", "# Hello again", t3)

	h, err := Open(context.Background(), filepath.Join(root, "input"), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())

	got, ok := h.LastModified(filepath.Join(root, "input", "hello", "post.md"))
	require.True(t, ok)
	assert.True(t, got.Equal(t3), "got %v", got)

	got, ok = h.LastModified(filepath.Join(root, "input", "about", "index.md"))
	require.True(t, ok)
	assert.True(t, got.Equal(t2), "got %v", got)

	got, ok = h.LastModified(filepath.Join(root, "input"))
	require.True(t, ok)
	assert.True(t, got.Equal(t3), "directory takes the newest file")

	_, ok = h.LastModified(filepath.Join(root, "input", "missing.md"))
	assert.False(t, ok)
	_, ok = h.LastModified(t.TempDir())
	assert.False(t, ok)
}

func TestOpenOutsideRepository(t *testing.T) {
	h, err := Open(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
	_, ok := h.LastModified("anything")
	assert.False(t, ok)
}

func TestOpenEmptyRepository(t *testing.T) {
	root := t.TempDir()
	helpers.InitGitRepo(t, root)
	h, err := Open(context.Background(), root, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, h.Len())
}

func TestOpenCancelled(t *testing.T) {
	root := t.TempDir()
	repo := helpers.InitGitRepo(t, root)
	helpers.CommitFile(t, repo, "a.md", "a", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, root, nil)
	require.ErrorIs(t, err, context.Canceled)
}
