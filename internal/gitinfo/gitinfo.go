// Package gitinfo reads last-modified times from the git history of the
// repository a project lives in.
package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/bang/internal/logfields"
)

// History maps worktree files to the time of the newest commit touching
// them. A History for a directory outside any repository is empty.
type History struct {
	root  string
	times map[string]time.Time
}

// Open walks the history of the repository containing dir, starting at
// HEAD. A directory that is not in a repository, or a repository without
// commits, yields an empty History and no error.
func Open(ctx context.Context, dir string, logger *slog.Logger) (*History, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &History{times: map[string]time.Time{}}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		logger.Debug("No git repository, using file times", logfields.Path(dir))
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no files to date.
		return h, nil
	}
	h.root = realpath(wt.Filesystem.Root())

	head, err := repo.Head()
	if err != nil {
		return h, nil
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash(), Order: git.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	start := time.Now()
	commits := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walk log: %w", err)
		}
		commits++
		if err := h.record(c); err != nil {
			return nil, fmt.Errorf("commit %s: %w", c.Hash, err)
		}
	}
	logger.Debug("Git history loaded",
		logfields.Path(h.root),
		logfields.Count(len(h.times)),
		slog.Int("commits", commits),
		logfields.Duration(time.Since(start)))
	return h, nil
}

// record dates every file the commit changed that no newer commit did.
func (h *History) record(c *object.Commit) error {
	when := c.Committer.When
	tree, err := c.Tree()
	if err != nil {
		return err
	}
	if c.NumParents() == 0 {
		return tree.Files().ForEach(func(f *object.File) error {
			h.note(f.Name, when)
			return nil
		})
	}
	parent, err := c.Parent(0)
	if err != nil {
		return err
	}
	parentTree, err := parent.Tree()
	if err != nil {
		return err
	}
	changes, err := object.DiffTree(parentTree, tree)
	if err != nil {
		return err
	}
	for _, ch := range changes {
		if ch.To.Name != "" {
			h.note(ch.To.Name, when)
		}
	}
	return nil
}

func (h *History) note(name string, when time.Time) {
	if _, ok := h.times[name]; !ok {
		h.times[name] = when
	}
}

// Len is the number of dated files.
func (h *History) Len() int { return len(h.times) }

// LastModified returns the last commit time of path. For a directory it is
// the newest time of any file below it.
func (h *History) LastModified(path string) (time.Time, bool) {
	if h == nil || h.root == "" {
		return time.Time{}, false
	}
	rel, err := filepath.Rel(h.root, realpath(path))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return time.Time{}, false
	}
	rel = filepath.ToSlash(rel)
	if t, ok := h.times[rel]; ok {
		return t, true
	}
	prefix := rel + "/"
	if rel == "." {
		prefix = ""
	}
	var newest time.Time
	for name, t := range h.times {
		if strings.HasPrefix(name, prefix) && t.After(newest) {
			newest = t
		}
	}
	return newest, !newest.IsZero()
}

func realpath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		return r
	}
	return abs
}
