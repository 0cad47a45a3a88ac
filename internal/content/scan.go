package content

import (
	"bufio"
	"log/slog"
	"os"
	"path"
	"regexp"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/frontmatter"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/paths"
)

var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[-_ ]*`)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ScanOptions tune Scan.
type ScanOptions struct {
	// DateOf returns a fallback date for a content file, typically its
	// last commit time.
	DateOf        func(file string) (time.Time, bool)
	Now           time.Time
	PublishFuture bool
	Logger        *slog.Logger
}

// Index is the result of a scan.
type Index struct {
	items       []*Item
	byRel       map[string]*Item
	collections map[string]*Collection
	names       []string
}

// Items returns every item in walk order.
func (x *Index) Items() []*Item { return x.items }

// Item returns the item at rel.
func (x *Index) Item(rel string) (*Item, bool) {
	it, ok := x.byRel[rel]
	return it, ok
}

// Collection returns the collection of a variant, empty when no item of
// that variant exists.
func (x *Index) Collection(name string) *Collection {
	if c, ok := x.collections[name]; ok {
		return c
	}
	return NewCollection(name)
}

// Names returns the names of non-empty collections in first-seen order.
func (x *Index) Names() []string { return x.names }

// Scan walks roots in order and classifies every public directory. A
// directory found under an earlier root hides the same relative directory
// under later roots, so project input wins over theme input.
func Scan(roots []string, variants *Variants, opts ScanOptions) (*Index, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	x := &Index{byRel: map[string]*Item{}, collections: map[string]*Collection{}}

	for _, root := range roots {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := paths.Walk(root, func(dir, rel string) error {
			if _, seen := x.byRel[rel]; seen {
				return nil
			}
			files, err := paths.Files(dir)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryFileSystem, "list directory").
					WithContext("path", dir).Build()
			}
			if len(files) == 0 {
				return nil
			}
			variant, file, ok := variants.Classify(files)
			if !ok {
				return nil
			}
			templates, err := variants.Templates(variant.Name())
			if err != nil {
				return err
			}
			it := NewItem(variant, templates, dir, rel, file, files)
			if it.Renders() {
				if err := it.readHeader(); err != nil {
					return err
				}
			}
			it.date = itemDate(it, opts)

			if isDated(variant) {
				if it.Draft() {
					opts.Logger.Debug("Skipping draft", logfields.Path(it.Path()))
					return nil
				}
				if !opts.PublishFuture && it.date.After(opts.Now) {
					opts.Logger.Debug("Skipping future post", logfields.Path(it.Path()))
					return nil
				}
			}
			x.add(it)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

func (x *Index) add(it *Item) {
	x.items = append(x.items, it)
	x.byRel[it.rel] = it
	name := it.variant.Name()
	c, ok := x.collections[name]
	if !ok {
		c = NewCollection(name)
		x.collections[name] = c
		x.names = append(x.names, name)
	}
	c.Append(it)
}

// readHeader reads only the metadata header of the content file.
func (it *Item) readHeader() error {
	f, err := os.Open(it.File())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "open content file").
			WithContext("path", it.File()).Build()
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	yamlBlock := false
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if len(lines) == 0 && strings.TrimSpace(line) == "---" {
			yamlBlock = true
		}
		lines = append(lines, line)
		if yamlBlock && len(lines) > 1 && strings.TrimSpace(line) == "---" {
			break
		}
		if !yamlBlock && strings.TrimSpace(line) == "" {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "read content file").
			WithContext("path", it.File()).Build()
	}
	meta, _, err := frontmatter.Split(lines)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryContent, "invalid metadata header").
			WithContext("path", it.File()).Build()
	}
	it.header = meta
	return nil
}

// itemDate picks the header date, a YYYY-MM-DD directory prefix, the
// DateOf fallback, then the file's modification time.
func itemDate(it *Item, opts ScanOptions) time.Time {
	if t, ok := parseDate(it.header["date"]); ok {
		return t
	}
	if m := datePrefix.FindStringSubmatch(path.Base(it.rel)); m != nil {
		if t, err := time.Parse("2006-01-02", m[1]); err == nil {
			return t
		}
	}
	target := it.File()
	if target == "" {
		target = it.dir
	}
	if opts.DateOf != nil {
		if t, ok := opts.DateOf(target); ok {
			return t
		}
	}
	if st, err := os.Stat(target); err == nil {
		return st.ModTime()
	}
	return time.Time{}
}

func parseDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, true
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
