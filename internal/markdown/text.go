package markdown

import (
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Summary returns the text of the first paragraph of an HTML fragment,
// shortened to at most limit runes on a word boundary. Paragraphs inside
// figures and footnotes are ignored.
func Summary(fragment string, limit int) string {
	nodes, err := nethtml.ParseFragment(strings.NewReader(fragment), &nethtml.Node{
		Type: nethtml.ElementNode, Data: "body", DataAtom: atom.Body,
	})
	if err != nil {
		return ""
	}
	for _, n := range nodes {
		if p := firstParagraph(n); p != nil {
			return Truncate(collapse(textOf(p)), limit)
		}
	}
	return ""
}

func firstParagraph(n *nethtml.Node) *nethtml.Node {
	if n.Type != nethtml.ElementNode {
		return nil
	}
	switch n.Data {
	case "p":
		if strings.TrimSpace(textOf(n)) != "" {
			return n
		}
		return nil
	case "figure", "pre", "script", "style":
		return nil
	case "div":
		for _, a := range n.Attr {
			if a.Key == "class" && a.Val == "footnotes" {
				return nil
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if p := firstParagraph(c); p != nil {
			return p
		}
	}
	return nil
}

func textOf(n *nethtml.Node) string {
	if n.Type == nethtml.TextNode {
		return n.Data
	}
	if n.Type == nethtml.ElementNode && n.Data == "sup" {
		return ""
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

// Truncate shortens s to at most limit runes, cutting at the last space
// and appending an ellipsis. A limit of zero or less returns s unchanged.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit-1])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:.") + "…"
}
