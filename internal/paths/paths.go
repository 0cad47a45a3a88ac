// Package paths walks the input tree and maps input paths to output paths.
//
// Names starting with "." or "_" are private: walks skip them together with
// everything below them.
package paths

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// IsPrivate reports whether a single path element is private.
func IsPrivate(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// IsPrivatePath reports whether any element of a slash or OS separated
// relative path is private.
func IsPrivatePath(rel string) bool {
	for _, seg := range strings.FieldsFunc(filepath.ToSlash(rel), func(r rune) bool { return r == '/' }) {
		if seg != "." && IsPrivate(seg) {
			return true
		}
	}
	return false
}

// WalkFunc is called for each public directory. rel is slash separated and
// "" for the root.
type WalkFunc func(dir, rel string) error

// Walk visits root and every public directory below it in lexical order.
func Walk(root string, fn WalkFunc) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "walk failed").
				WithContext("path", p).
				Build()
		}
		if !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			rel = ""
		}
		if rel != "" && IsPrivate(d.Name()) {
			return filepath.SkipDir
		}
		return fn(p, filepath.ToSlash(rel))
	})
}

// Files returns the public regular files directly inside dir, sorted.
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || IsPrivate(e.Name()) || !e.Type().IsRegular() {
			continue
		}
		out = append(out, e.Name())
	}
	slices.Sort(out)
	return out, nil
}

// CopyFile copies src to dst, creating parent directories and keeping the
// source permissions.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	st, err := in.Stat()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, st.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// CopyDir copies the public part of src into dst.
func CopyDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel != "." && IsPrivate(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return CopyFile(p, target)
	})
}

// Clear removes everything inside dir but keeps dir itself.
func Clear(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Rel returns target relative to base in slash form, "" when equal.
func Rel(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", err
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

var lower = cases.Lower(language.Und)

// Slug normalizes one path element: NFC, lowercased, runs of whitespace
// replaced by a single hyphen.
func Slug(s string) string {
	s = lower.String(norm.NFC.String(strings.TrimSpace(s)))
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			space = true
			continue
		}
		if space {
			b.WriteByte('-')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// OutputRel slugs every element of a slash separated relative path.
func OutputRel(rel string) string {
	if rel == "" {
		return ""
	}
	segs := strings.Split(rel, "/")
	for i, s := range segs {
		segs[i] = Slug(s)
	}
	return strings.Join(segs, "/")
}

// Depth counts the elements of a slash separated relative path.
func Depth(rel string) int {
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

// Parent returns the parent of a slash separated relative path, "" for
// top-level entries.
func Parent(rel string) string {
	i := strings.LastIndex(rel, "/")
	if i < 0 {
		return ""
	}
	return rel[:i]
}
