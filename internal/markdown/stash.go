package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	stx = "\x02"
	etx = "\x03"
)

var placeholderRe = regexp.MustCompile(`(?:<p>)?` + stx + `bang:(\d+)` + etx + `(?:</p>)?`)

// Stash keeps HTML fragments out of reach of later passes. Each stored
// fragment is replaced by an opaque placeholder in the document and put
// back by the raw_html postprocessor.
type Stash struct {
	items []string
}

// Store keeps html and returns its placeholder.
func (s *Stash) Store(html string) string {
	s.items = append(s.items, html)
	return Placeholder(len(s.items) - 1)
}

// Placeholder returns the placeholder text for stash index i.
func Placeholder(i int) string { return stx + "bang:" + strconv.Itoa(i) + etx }

// Get returns the fragment at i.
func (s *Stash) Get(i int) (string, bool) {
	if i < 0 || i >= len(s.items) {
		return "", false
	}
	return s.items[i], true
}

// Replace swaps the fragment stored at i.
func (s *Stash) Replace(i int, html string) bool {
	if i < 0 || i >= len(s.items) {
		return false
	}
	s.items[i] = html
	return true
}

func (s *Stash) Len() int { return len(s.items) }
func (s *Stash) Reset()   { s.items = s.items[:0] }

// Restore replaces every placeholder in html with its fragment. A
// placeholder that is the only content of a paragraph replaces the whole
// paragraph.
func (s *Stash) Restore(html string) string {
	if !strings.Contains(html, stx) {
		return html
	}
	return placeholderRe.ReplaceAllStringFunc(html, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		i, _ := strconv.Atoi(sub[1])
		frag, ok := s.Get(i)
		if !ok {
			return m
		}
		wrapped := strings.HasPrefix(m, "<p>")
		closed := strings.HasSuffix(m, "</p>")
		switch {
		case wrapped && closed:
			return frag
		case wrapped:
			return "<p>" + frag
		case closed:
			return frag + "</p>"
		}
		return frag
	})
}

// stripControl removes the placeholder delimiters from author input so
// documents cannot forge placeholders.
func stripControl(s string) string {
	return strings.NewReplacer(stx, "", etx, "").Replace(s)
}
