package markdown

import (
	"bytes"
	"unicode"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// embedParser turns a paragraph made of a single http(s) URL into an
// Embed node when the embedder recognises the URL. Unrecognised URLs fall
// through to the paragraph parser.
type embedParser struct {
	m *Markdown
}

func (p *embedParser) Trigger() []byte { return []byte{'h'} }

func (p *embedParser) Open(_ gmast.Node, reader text.Reader, pc parser.Context) (gmast.Node, parser.State) {
	if p.m.embedder == nil {
		return nil, parser.NoChildren
	}
	doc := documentFrom(pc)
	if doc == nil {
		return nil, parser.NoChildren
	}
	line, seg := reader.PeekLine()
	raw := bytes.TrimSpace(line)
	if !isStandaloneURL(raw) || !nextLineBlank(reader) {
		return nil, parser.NoChildren
	}

	em, ok := p.m.embedder.Lookup(doc.Context(), string(raw), doc.InputDir())
	if !ok {
		return nil, parser.NoChildren
	}
	node := &Embed{
		Provider:   em.Provider,
		URL:        em.URL,
		Frame:      em.Frame,
		ID:         em.ID,
		Image:      em.Image,
		StashIndex: -1,
	}
	if !em.Image {
		node.StashIndex = doc.Stash.Len()
		doc.Stash.Store(em.HTML)
	}
	reader.Advance(seg.Len() - 1)
	return node, parser.NoChildren
}

func (p *embedParser) Continue(gmast.Node, text.Reader, parser.Context) parser.State {
	return parser.Close
}

func (p *embedParser) Close(gmast.Node, text.Reader, parser.Context) {}

func (p *embedParser) CanInterruptParagraph() bool { return false }

func (p *embedParser) CanAcceptIndentedLine() bool { return false }

func isStandaloneURL(b []byte) bool {
	if !bytes.HasPrefix(b, []byte("http://")) && !bytes.HasPrefix(b, []byte("https://")) {
		return false
	}
	return bytes.IndexFunc(b, func(r rune) bool { return unicode.IsSpace(r) || r == '<' || r == '>' }) < 0
}

// nextLineBlank peeks past the current line without consuming it.
func nextLineBlank(reader text.Reader) bool {
	line, seg := reader.Position()
	defer reader.SetPosition(line, seg)
	reader.AdvanceLine()
	next, _ := reader.PeekLine()
	return next == nil || util.IsBlank(next)
}
