package embed

import (
	"encoding/json"
	"os"
	"path/filepath"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// CacheDir is the directory, inside a post's input directory, that holds
// one JSON file per provider.
const CacheDir = "_embed"

// CachePath returns the cache file for provider in dir.
func CachePath(dir, provider string) string {
	return filepath.Join(dir, CacheDir, provider+".json")
}

// Cache maps source URLs to embed HTML. Values on disk are either a
// string or an oEmbed object with an "html" member.
type Cache struct {
	path    string
	entries map[string]string
	dirty   bool
}

type oembedBody struct {
	HTML string `json:"html"`
}

// LoadCache reads the cache at path. A missing file yields an empty cache.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, entries: map[string]string{}}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read embed cache").
			WithContext("path", path).Build()
	}
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryEmbed, "parse embed cache").
			WithContext("path", path).Build()
	}
	for k, v := range raw {
		var s string
		if json.Unmarshal(v, &s) == nil {
			c.entries[k] = s
			continue
		}
		var body oembedBody
		if json.Unmarshal(v, &body) == nil && body.HTML != "" {
			c.entries[k] = body.HTML
		}
	}
	return c, nil
}

// Path returns the file the cache reads from and saves to.
func (c *Cache) Path() string { return c.path }

// Get returns the cached HTML for rawURL.
func (c *Cache) Get(rawURL string) (string, bool) {
	v, ok := c.entries[rawURL]
	return v, ok
}

// Put stores markup for rawURL.
func (c *Cache) Put(rawURL, markup string) {
	if old, ok := c.entries[rawURL]; ok && old == markup {
		return
	}
	c.entries[rawURL] = markup
	c.dirty = true
}

// Len returns the number of cached URLs.
func (c *Cache) Len() int { return len(c.entries) }

// Save writes the cache if it changed since it was loaded. The write goes
// through a temporary file so a crash never leaves a truncated cache.
func (c *Cache) Save() error {
	if !c.dirty {
		return nil
	}
	// Map keys are sorted on encode, so the file is stable across runs.
	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode embed cache").Build()
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create embed cache directory").
			WithContext("path", c.path).Build()
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write embed cache").
			WithContext("path", tmp).Build()
	}
	if err := os.Rename(tmp, c.path); err != nil {
		_ = os.Remove(tmp)
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "replace embed cache").
			WithContext("path", c.path).Build()
	}
	c.dirty = false
	return nil
}
