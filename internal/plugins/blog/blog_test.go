package blog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bang/internal/content"
	"git.home.luguber.info/inful/bang/internal/registry"
)

func TestPostMatch(t *testing.T) {
	file, ok := Post{}.Match([]string{"cover.jpg", "Post.md"})
	assert.True(t, ok)
	assert.Equal(t, "Post.md", file)

	_, ok = Post{}.Match([]string{"index.md"})
	assert.False(t, ok)
}

func TestPostClassifiesBeforePage(t *testing.T) {
	v := content.NewVariants()
	require.NoError(t, v.Register(Post{}, registry.Before(content.PageName)))

	got, file, ok := v.Classify([]string{"index.md", "post.md"})
	require.True(t, ok)
	assert.Equal(t, Name, got.Name())
	assert.Equal(t, "post.md", file)

	templates, err := v.Templates(Name)
	require.NoError(t, err)
	assert.Equal(t, []string{"post", "page"}, templates)
}

func TestMetadata(t *testing.T) {
	require.NoError(t, New().Metadata().Validate())
}
