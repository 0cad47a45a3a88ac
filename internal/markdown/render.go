package markdown

import (
	"strconv"

	gmast "github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// nodeRenderer renders images and the node kinds this package adds.
type nodeRenderer struct {
	m *Markdown
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(gmast.KindImage, r.renderImage)
	reg.Register(KindFigure, r.renderFigure)
	reg.Register(KindEmbed, r.renderEmbed)
	reg.Register(KindIns, r.renderIns)
}

func (r *nodeRenderer) renderImage(w util.BufWriter, source []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*gmast.Image)
	_, amp := n.AttributeString("amp")
	if amp {
		_, _ = w.WriteString(`<amp-img src="`)
	} else {
		_, _ = w.WriteString(`<img src="`)
	}
	_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.Destination, true)))
	_, _ = w.WriteString(`" alt="`)
	_, _ = w.Write(util.EscapeHTML([]byte(plainText(n, source))))
	_ = w.WriteByte('"')
	if len(n.Title) > 0 {
		_, _ = w.WriteString(` title="`)
		html.DefaultWriter.Write(w, n.Title)
		_ = w.WriteByte('"')
	}
	if n.Attributes() != nil {
		html.RenderAttributes(w, n, html.ImageAttributeFilter)
	}
	if amp {
		_, _ = w.WriteString(` layout="responsive"></amp-img>`)
	} else {
		_ = w.WriteByte('>')
	}
	return gmast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderFigure(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*Figure)
	if entering {
		_, _ = w.WriteString(`<figure class="image">`)
		return gmast.WalkContinue, nil
	}
	if len(n.Caption) > 0 {
		_, _ = w.WriteString("<figcaption>")
		html.DefaultWriter.Write(w, n.Caption)
		_, _ = w.WriteString("</figcaption>")
	}
	_, _ = w.WriteString("</figure>\n")
	return gmast.WalkContinue, nil
}

func (r *nodeRenderer) renderEmbed(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*Embed)
	_, _ = w.WriteString(`<figure class="embed `)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Provider)))
	_, _ = w.WriteString(`">`)
	if n.StashIndex >= 0 {
		_, _ = w.WriteString(Placeholder(n.StashIndex))
	}
	_, _ = w.WriteString("</figure>\n")
	return gmast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderIns(w util.BufWriter, _ []byte, _ gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<ins>")
	} else {
		_, _ = w.WriteString("</ins>")
	}
	return gmast.WalkContinue, nil
}

// footnoteRenderer renders footnotes with ids that include the document
// key, so footnotes of several documents can share one page.
type footnoteRenderer struct {
	m *Markdown
}

func (r *footnoteRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(extast.KindFootnoteLink, r.renderLink)
	reg.Register(extast.KindFootnoteBacklink, r.renderBacklink)
	reg.Register(extast.KindFootnote, r.renderFootnote)
	reg.Register(extast.KindFootnoteList, r.renderList)
}

func (r *footnoteRenderer) key() string {
	if d := r.m.doc; d != nil {
		return d.Key()
	}
	return "doc"
}

func (r *footnoteRenderer) noteID(index int) string {
	return "fn-" + r.key() + "-" + strconv.Itoa(index)
}

func (r *footnoteRenderer) refID(index, ref int) string {
	id := "fnref-" + r.key() + "-" + strconv.Itoa(index)
	if ref > 0 {
		id += "-" + strconv.Itoa(ref)
	}
	return id
}

func (r *footnoteRenderer) renderLink(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*extast.FootnoteLink)
	_, _ = w.WriteString(`<sup id="` + r.refID(n.Index, n.RefIndex) + `">`)
	_, _ = w.WriteString(`<a href="#` + r.noteID(n.Index) + `" class="footnote-ref" role="doc-noteref">`)
	_, _ = w.WriteString(strconv.Itoa(n.Index))
	_, _ = w.WriteString("</a></sup>")
	return gmast.WalkContinue, nil
}

func (r *footnoteRenderer) renderBacklink(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*extast.FootnoteBacklink)
	_, _ = w.WriteString(`&#160;<a href="#` + r.refID(n.Index, n.RefIndex) + `" class="footnote-backref" role="doc-backlink">`)
	_, _ = w.WriteString("&#x21a9;&#xfe0e;</a>")
	return gmast.WalkContinue, nil
}

func (r *footnoteRenderer) renderFootnote(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	n := node.(*extast.Footnote)
	if entering {
		_, _ = w.WriteString(`<li id="` + r.noteID(n.Index) + `">` + "\n")
	} else {
		_, _ = w.WriteString("</li>\n")
	}
	return gmast.WalkContinue, nil
}

func (r *footnoteRenderer) renderList(w util.BufWriter, _ []byte, _ gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<div class="footnotes" role="doc-endnotes">` + "\n<hr>\n<ol>\n")
	} else {
		_, _ = w.WriteString("</ol>\n</div>\n")
	}
	return gmast.WalkContinue, nil
}
