package assets

import (
	"bytes"
	"errors"
	"html"
	"io"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func escape(s string) string { return html.EscapeString(s) }

// Inject inserts head immediately before the first </head> and body
// immediately before the last </body> of doc. A document missing either
// tag is left unchanged at that point.
func Inject(doc, head, body string) (string, error) {
	if head == "" && body == "" {
		return doc, nil
	}
	var out bytes.Buffer
	out.Grow(len(doc) + len(head) + len(body))

	z := nethtml.NewTokenizer(strings.NewReader(doc))
	headDone := head == ""
	bodyAt := -1
	for {
		tt := z.Next()
		if tt == nethtml.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				return "", z.Err()
			}
			break
		}
		if tt == nethtml.EndTagToken {
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Head:
				if !headDone {
					out.WriteString(head)
					headDone = true
				}
			case atom.Body:
				bodyAt = out.Len()
			}
		}
		out.Write(z.Raw())
	}
	if body == "" || bodyAt < 0 {
		return out.String(), nil
	}
	s := out.String()
	return s[:bodyAt] + body + s[bodyAt:], nil
}

// Inject adds the set's head and body markup to doc.
func (a *Assets) Inject(doc string) (string, error) {
	return Inject(doc, a.HeadHTML(), a.BodyHTML())
}
