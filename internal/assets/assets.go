// Package assets fingerprints a site's static files and renders the markup
// that references them.
package assets

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/paths"
	"git.home.luguber.info/inful/bang/internal/urls"
)

// Dir is the name of the assets directory, both in a project or theme
// and in the output tree.
const Dir = "assets"

// hashLen is the number of hex digits of the content hash kept in names.
const hashLen = 12

type Kind string

const (
	KindCSS   Kind = "css"
	KindJS    Kind = "js"
	KindOther Kind = "other"
)

// kinds maps file extensions to the markup an asset gets in the head.
var kinds = map[string]Kind{
	".css": KindCSS,
	".js":  KindJS,
	".mjs": KindJS,
}

// KindOf classifies a file name or URL by extension.
func KindOf(name string) Kind {
	if k, ok := kinds[strings.ToLower(path.Ext(name))]; ok {
		return k
	}
	return KindOther
}

// Asset is one static file or remote URL.
type Asset struct {
	Name   string // basename, unique within a set
	Source string // file path, or the URL for remote assets
	Kind   Kind
	Remote bool
	Hash   string
	// OutName is "<hash>.<basename>"; empty for remote assets.
	OutName string
	URL     string
}

// Assets is an ordered set of assets.
type Assets struct {
	logger     *slog.Logger
	assets     []*Asset
	byName     map[string]*Asset
	before     []*regexp.Regexp
	middle     []*regexp.Regexp
	after      []*regexp.Regexp
	bodyScript string
	compiled   bool
}

func New(logger *slog.Logger) *Assets {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assets{logger: logger, byName: map[string]*Asset{}}
}

// AddDir registers every public file directly inside root/assets. A missing
// directory is not an error. Names already registered are skipped, so
// directories added first take precedence.
func (a *Assets) AddDir(root string) error {
	if root == "" {
		return nil
	}
	dir := filepath.Join(root, Dir)
	files, err := paths.Files(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "scan assets").
			WithContext("path", dir).Build()
	}
	for _, f := range files {
		if err := a.Add(filepath.Join(dir, f)); err != nil {
			return err
		}
	}
	return nil
}

// Add registers a file path or a remote URL.
func (a *Assets) Add(src string) error {
	u := urls.Parse(src)
	remote := u.IsAbsolute() || u.IsProtocolRelative()
	name := filepath.Base(src)
	if remote {
		name = u.Basename()
	}
	key := name
	if remote {
		key = src
	}
	if _, ok := a.byName[key]; ok {
		a.logger.Debug("Asset shadowed", logfields.File(src))
		return nil
	}
	if !remote {
		st, err := os.Stat(src)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat asset").
				WithContext("path", src).Build()
		}
		if st.IsDir() {
			return nil
		}
	}
	as := &Asset{Name: name, Source: src, Kind: KindOf(name), Remote: remote}
	if remote {
		as.URL = src
	}
	a.assets = append(a.assets, as)
	a.byName[key] = as
	a.compiled = false
	return nil
}

// Order sets the regular expressions sorting assets in the markup. Assets
// matching before come first, then middle, then unmatched assets, then
// after. Within a bucket assets follow the order of the expressions.
func (a *Assets) Order(before, middle, after []string) error {
	var err error
	if a.before, err = compileAll(before); err != nil {
		return err
	}
	if a.middle, err = compileAll(middle); err != nil {
		return err
	}
	a.after, err = compileAll(after)
	return err
}

func compileAll(exprs []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid asset order expression").
				WithContext("expr", e).Build()
		}
		out = append(out, re)
	}
	return out, nil
}

// SetBodyScript sets inline JavaScript emitted by BodyHTML.
func (a *Assets) SetBodyScript(js string) { a.bodyScript = js }

// Get returns a registered asset by basename.
func (a *Assets) Get(name string) (*Asset, bool) {
	as, ok := a.byName[name]
	return as, ok
}

func (a *Assets) Len() int { return len(a.assets) }

// Compile hashes every local asset and computes its output name.
func (a *Assets) Compile() error {
	for _, as := range a.assets {
		if as.Remote {
			continue
		}
		sum, err := hashFile(as.Source)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "hash asset").
				WithContext("path", as.Source).Build()
		}
		as.Hash = sum
		as.OutName = sum + "." + as.Name
	}
	a.compiled = true
	return nil
}

func hashFile(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:hashLen], nil
}

// Output copies local assets to outDir/assets and resolves their URLs
// against baseURL. An empty baseURL yields path-rooted URLs. It returns the
// number of files copied.
func (a *Assets) Output(outDir, baseURL string) (int, error) {
	if !a.compiled {
		if err := a.Compile(); err != nil {
			return 0, err
		}
	}
	n := 0
	for _, as := range a.assets {
		if as.Remote {
			continue
		}
		if err := paths.CopyFile(as.Source, filepath.Join(outDir, Dir, as.OutName)); err != nil {
			return n, ferrors.WrapError(err, ferrors.CategoryFileSystem, "copy asset").
				WithContext("path", as.Source).Build()
		}
		n++
		rooted := "/" + Dir + "/" + as.OutName
		if baseURL == "" {
			as.URL = rooted
		} else {
			as.URL = urls.Join(baseURL, rooted)
		}
	}
	a.logger.Debug("Assets written", logfields.Count(n), logfields.Path(filepath.Join(outDir, Dir)))
	return n, nil
}

func bucketOf(name string, res []*regexp.Regexp) int {
	for i, re := range res {
		if re.MatchString(name) {
			return i
		}
	}
	return -1
}

// Ordered returns the assets in markup order.
func (a *Assets) Ordered() []*Asset {
	type ranked struct {
		bucket, slot, pos int
		as                *Asset
	}
	rs := make([]ranked, 0, len(a.assets))
	for pos, as := range a.assets {
		r := ranked{bucket: 2, pos: pos, as: as}
		if i := bucketOf(as.Name, a.before); i >= 0 {
			r.bucket, r.slot = 0, i
		} else if i := bucketOf(as.Name, a.middle); i >= 0 {
			r.bucket, r.slot = 1, i
		} else if i := bucketOf(as.Name, a.after); i >= 0 {
			r.bucket, r.slot = 3, i
		}
		rs = append(rs, r)
	}
	slices.SortStableFunc(rs, func(x, y ranked) int {
		if x.bucket != y.bucket {
			return x.bucket - y.bucket
		}
		if x.slot != y.slot {
			return x.slot - y.slot
		}
		return x.pos - y.pos
	})
	out := make([]*Asset, len(rs))
	for i, r := range rs {
		out[i] = r.as
	}
	return out
}

// HeadHTML renders stylesheet links and script tags for the ordered assets.
func (a *Assets) HeadHTML() string {
	var b bytes.Buffer
	for _, as := range a.Ordered() {
		if as.URL == "" {
			continue
		}
		switch as.Kind {
		case KindCSS:
			b.WriteString(`<link rel="stylesheet" href="` + escape(as.URL) + `">` + "\n")
		case KindJS:
			b.WriteString(`<script src="` + escape(as.URL) + `"></script>` + "\n")
		}
	}
	return b.String()
}

// BodyHTML renders the inline body script, if one is set.
func (a *Assets) BodyHTML() string {
	if strings.TrimSpace(a.bodyScript) == "" {
		return ""
	}
	return "<script>\n" + a.bodyScript + "\n</script>\n"
}
