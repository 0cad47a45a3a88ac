package markdown

import (
	"io"
	"regexp"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/bang/internal/urls"
)

var bareURL = regexp.MustCompile(`https?://[^\s<>"'\x02\x03]+`)

// linkify wraps bare URLs in anchors. Text inside a, pre, code, script
// and style elements is left alone.
func linkify(_ *Document, src string) (string, error) {
	if !strings.Contains(src, "http") {
		return src, nil
	}
	z := nethtml.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src))
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			if z.Err() == io.EOF {
				return b.String(), nil
			}
			return "", z.Err()
		case nethtml.StartTagToken:
			if name, _ := z.TagName(); opaqueTag(name) {
				skip++
			}
		case nethtml.EndTagToken:
			if name, _ := z.TagName(); opaqueTag(name) && skip > 0 {
				skip--
			}
		case nethtml.TextToken:
			if skip == 0 {
				b.WriteString(linkText(string(z.Raw())))
				continue
			}
		}
		b.Write(z.Raw())
	}
}

func opaqueTag(name []byte) bool {
	switch string(name) {
	case "a", "pre", "code", "script", "style":
		return true
	}
	return false
}

func linkText(s string) string {
	return bareURL.ReplaceAllStringFunc(s, func(u string) string {
		trimmed := strings.TrimRight(u, ".,;:!?)")
		rest := u[len(trimmed):]
		return `<a href="` + trimmed + `">` + trimmed + `</a>` + rest
	})
}

// absoluteRawLinks applies the absolute link rules to a and img tags
// written as raw HTML. Tags produced from markdown are already absolute
// and pass through byte for byte.
func absoluteRawLinks(doc *Document, src string) (string, error) {
	if !strings.Contains(src, "<a") && !strings.Contains(src, "<img") {
		return src, nil
	}
	base := doc.View.BaseURL()
	itemURL := doc.URL()
	z := nethtml.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	b.Grow(len(src))
	for {
		tt := z.Next()
		switch tt {
		case nethtml.ErrorToken:
			if z.Err() == io.EOF {
				return b.String(), nil
			}
			return "", z.Err()
		case nethtml.StartTagToken, nethtml.SelfClosingTagToken:
			raw := string(z.Raw())
			tok := z.Token()
			if rewriteURLAttr(&tok, base, itemURL) {
				b.WriteString(tok.String())
			} else {
				b.WriteString(raw)
			}
			continue
		}
		b.Write(z.Raw())
	}
}

func rewriteURLAttr(tok *nethtml.Token, base, itemURL string) bool {
	var key string
	switch tok.DataAtom {
	case atom.A:
		key = "href"
	case atom.Img:
		key = "src"
	default:
		return false
	}
	changed := false
	for i, a := range tok.Attr {
		if a.Namespace != "" || a.Key != key {
			continue
		}
		if u := urls.Parse(a.Val); a.Val == "" || u.IsFragment() {
			continue
		}
		if v := absolutize(a.Val, base, itemURL); v != a.Val {
			tok.Attr[i].Val = v
			changed = true
		}
	}
	return changed
}

// restoreStash puts the stashed fragments back.
func restoreStash(doc *Document, src string) (string, error) {
	return doc.Stash.Restore(src), nil
}
