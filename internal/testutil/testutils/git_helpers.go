package helpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// InitGitRepo turns dir into a git repository and returns it.
func InitGitRepo(t *testing.T, dir string) *git.Repository {
	t.Helper()

	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}
	return repo
}

// CommitFile writes filename below the repository root and commits it
// with author and committer time when.
func CommitFile(t *testing.T, repo *git.Repository, filename, content string, when time.Time) {
	t.Helper()

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	full := filepath.Join(w.Filesystem.Root(), filename)
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("mkdir %s: %v", filename, err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
	if _, err := w.Add(filepath.ToSlash(filename)); err != nil {
		t.Fatalf("add %s: %v", filename, err)
	}
	sig := &object.Signature{Name: "tester", Email: "t@example.com", When: when}
	if _, err := w.Commit("update "+filename, &git.CommitOptions{Author: sig, Committer: sig}); err != nil {
		t.Fatalf("commit %s: %v", filename, err)
	}
}
