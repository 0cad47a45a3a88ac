package markdown

import (
	gmast "github.com/yuin/goldmark/ast"
)

// Ins is inserted text, written "++text++".
type Ins struct {
	gmast.BaseInline
}

var KindIns = gmast.NewNodeKind("Ins")

func (n *Ins) Kind() gmast.NodeKind { return KindIns }

func (n *Ins) Dump(source []byte, level int) { gmast.DumpHelper(n, source, level, nil, nil) }

// Embed is a standalone URL recognised by an embed provider. Its HTML sits
// in the stash; the node only carries the placeholder.
type Embed struct {
	gmast.BaseBlock
	Provider   string
	URL        string
	StashIndex int
	// Frame is the iframe source for players, empty otherwise.
	Frame string
	// ID is the provider's id for the embedded object.
	ID string
	// Image marks a plain image URL, turned into a figure by a tree pass.
	Image bool
}

var KindEmbed = gmast.NewNodeKind("Embed")

func (n *Embed) Kind() gmast.NodeKind { return KindEmbed }

func (n *Embed) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Provider": n.Provider, "URL": n.URL}, nil)
}

// Figure wraps a lone image with an optional caption.
type Figure struct {
	gmast.BaseBlock
	Caption []byte
}

var KindFigure = gmast.NewNodeKind("Figure")

func (n *Figure) Kind() gmast.NodeKind { return KindFigure }

func (n *Figure) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Caption": string(n.Caption)}, nil)
}
