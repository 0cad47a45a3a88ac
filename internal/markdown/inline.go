package markdown

import (
	"bytes"

	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// insParser turns "++text++" into an Ins node. The delimiters must sit on
// one line and the text may not start or end with a space.
type insParser struct{}

func (insParser) Trigger() []byte { return []byte{'+'} }

func (insParser) Parse(_ gmast.Node, block text.Reader, _ parser.Context) gmast.Node {
	line, seg := block.PeekLine()
	if len(line) < 5 || line[0] != '+' || line[1] != '+' {
		return nil
	}
	rest := line[2:]
	end := bytes.Index(rest, []byte("++"))
	if end <= 0 || rest[0] == ' ' || rest[end-1] == ' ' {
		return nil
	}
	n := &Ins{}
	n.AppendChild(n, gmast.NewTextSegment(text.NewSegment(seg.Start+2, seg.Start+2+end)))
	block.Advance(end + 4)
	return n
}
