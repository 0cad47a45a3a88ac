// Package markdown converts documents to HTML through five ordered stages.
//
// Preprocessors rewrite the source lines, block and inline parsers build
// the goldmark AST, tree processors rewrite the AST, and postprocessors
// rewrite the serialized HTML. Each stage is a registry.Registry, so
// plugins can add passes relative to the built-in ones by name. HTML that
// later passes must not touch is kept in a Stash behind opaque
// placeholders and restored by the last postprocessor.
package markdown

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/bang/internal/config"
	"git.home.luguber.info/inful/bang/internal/embed"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/frontmatter"
	"git.home.luguber.info/inful/bang/internal/logfields"
	"git.home.luguber.info/inful/bang/internal/registry"
)

// TreeProcessor rewrites the parsed document.
type TreeProcessor interface {
	Run(doc *Document, root gmast.Node, source []byte) error
}

// TreeProcessorFunc adapts a function to TreeProcessor.
type TreeProcessorFunc func(doc *Document, root gmast.Node, source []byte) error

func (f TreeProcessorFunc) Run(doc *Document, root gmast.Node, source []byte) error {
	return f(doc, root, source)
}

// Postprocessor rewrites the rendered HTML.
type Postprocessor interface {
	Run(doc *Document, html string) (string, error)
}

// PostprocessorFunc adapts a function to Postprocessor.
type PostprocessorFunc func(doc *Document, html string) (string, error)

func (f PostprocessorFunc) Run(doc *Document, html string) (string, error) { return f(doc, html) }

// Embedder resolves standalone URLs to rich media.
type Embedder interface {
	Lookup(ctx context.Context, rawURL, dir string) (embed.Embed, bool)
}

// Options configure a Markdown instance.
type Options struct {
	View     config.View
	Embedder Embedder
	Logger   *slog.Logger
}

// Result is one converted document.
type Result struct {
	HTML  string
	Title string
	Meta  frontmatter.Meta
}

// Markdown is a converter. Per-document state lives on the instance, so
// Convert serializes its callers.
type Markdown struct {
	Preprocessors  *registry.Registry[Preprocessor]
	BlockParsers   *registry.Registry[parser.BlockParser]
	InlineParsers  *registry.Registry[parser.InlineParser]
	TreeProcessors *registry.Registry[TreeProcessor]
	Postprocessors *registry.Registry[Postprocessor]

	view     config.View
	embedder Embedder
	logger   *slog.Logger

	mu       sync.Mutex
	md       goldmark.Markdown
	versions [2]uint64
	stash    Stash
	doc      *Document
}

// New returns a converter with the default passes registered.
func New(opts Options) *Markdown {
	m := &Markdown{
		Preprocessors:  registry.New[Preprocessor](),
		BlockParsers:   registry.New[parser.BlockParser](),
		InlineParsers:  registry.New[parser.InlineParser](),
		TreeProcessors: registry.New[TreeProcessor](),
		Postprocessors: registry.New[Postprocessor](),
		view:           opts.View,
		embedder:       opts.Embedder,
		logger:         opts.Logger,
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.registerDefaults()
	return m
}

func (m *Markdown) registerDefaults() {
	must := func(_ float64, err error) {
		if err != nil {
			panic(err)
		}
	}

	must(m.Preprocessors.Register("normalize", PreprocessorFunc(normalizeLines), registry.At(30)))
	must(m.Preprocessors.Register("meta", PreprocessorFunc(extractMeta), registry.At(27)))
	must(m.Preprocessors.Register("fenced_code", fencedCode{}, registry.At(25)))
	must(m.Preprocessors.Register("magic_refs", magicRefs{}, registry.At(20)))
	must(m.Preprocessors.Register("footnote_position", PreprocessorFunc(footnotePosition), registry.At(15)))

	blocks := []struct {
		name string
		p    parser.BlockParser
	}{
		{"setext_heading", parser.NewSetextHeadingParser()},
		{"thematic_break", parser.NewThematicBreakParser()},
		{"list", parser.NewListParser()},
		{"list_item", parser.NewListItemParser()},
		{"code_block", parser.NewCodeBlockParser()},
		{"atx_heading", parser.NewATXHeadingParser()},
		{"fenced_code_block", parser.NewFencedCodeBlockParser()},
		{"blockquote", parser.NewBlockquoteParser()},
		{"html_block", parser.NewHTMLBlockParser()},
		{"footnote_definition", extension.NewFootnoteBlockParser()},
		{"paragraph", parser.NewParagraphParser()},
	}
	for _, b := range blocks {
		must(m.BlockParsers.Register(b.name, b.p, registry.End))
	}
	must(m.BlockParsers.Register("embed", &embedParser{m: m}, registry.Before("paragraph")))

	inlines := []struct {
		name string
		p    parser.InlineParser
	}{
		{"code_span", parser.NewCodeSpanParser()},
		{"footnote_reference", extension.NewFootnoteParser()},
		{"link", parser.NewLinkParser()},
		{"auto_link", parser.NewAutoLinkParser()},
		{"raw_html", parser.NewRawHTMLParser()},
		{"emphasis", parser.NewEmphasisParser()},
		{"strikethrough", extension.NewStrikethroughParser()},
		{"ins", insParser{}},
	}
	for _, in := range inlines {
		must(m.InlineParsers.Register(in.name, in.p, registry.End))
	}

	must(m.TreeProcessors.Register("extract_title", TreeProcessorFunc(extractTitle), registry.At(40)))
	must(m.TreeProcessors.Register("embed_images", TreeProcessorFunc(embedImages), registry.At(35)))
	must(m.TreeProcessors.Register("image_caption", TreeProcessorFunc(imageCaption), registry.At(30)))
	must(m.TreeProcessors.Register("figure", TreeProcessorFunc(figures), registry.At(25)))
	must(m.TreeProcessors.Register("lazyload", TreeProcessorFunc(lazyload), registry.At(20)))
	must(m.TreeProcessors.Register("absolute_links", TreeProcessorFunc(absoluteLinks), registry.At(15)))
	must(m.TreeProcessors.Register("amp", TreeProcessorFunc(ampTags), registry.At(10)))

	must(m.Postprocessors.Register("linkify", PostprocessorFunc(linkify), registry.At(20)))
	must(m.Postprocessors.Register("absolute_raw_links", PostprocessorFunc(absoluteRawLinks), registry.At(15)))
	must(m.Postprocessors.Register("raw_html", PostprocessorFunc(restoreStash), registry.At(10)))
}

// SetView replaces the config the next conversions see.
func (m *Markdown) SetView(v config.View) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.view = v
}

// View returns the config conversions see.
func (m *Markdown) View() config.View {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Stash returns the stash of the current document.
func (m *Markdown) Stash() *Stash { return &m.stash }

// Document returns the document being converted, or the last one.
func (m *Markdown) Document() *Document { return m.doc }

// Reset clears per-document state.
func (m *Markdown) Reset() {
	m.stash.Reset()
	m.doc = nil
}

// engine returns the goldmark instance for the current parser registries,
// rebuilding it when either registry changed.
func (m *Markdown) engine() goldmark.Markdown {
	v := [2]uint64{m.BlockParsers.Version(), m.InlineParsers.Version()}
	if m.md != nil && v == m.versions {
		return m.md
	}
	var blocks, inlines []util.PrioritizedValue
	for i, p := range m.BlockParsers.Items() {
		blocks = append(blocks, util.Prioritized(p, (i+1)*100))
	}
	for i, p := range m.InlineParsers.Items() {
		inlines = append(inlines, util.Prioritized(p, (i+1)*100))
	}
	p := parser.NewParser(
		parser.WithBlockParsers(blocks...),
		parser.WithInlineParsers(inlines...),
		parser.WithParagraphTransformers(parser.DefaultParagraphTransformers()...),
		parser.WithASTTransformers(util.Prioritized(extension.NewFootnoteASTTransformer(), 999)),
	)
	r := renderer.NewRenderer(renderer.WithNodeRenderers(
		util.Prioritized(html.NewRenderer(html.WithUnsafe()), 1000),
		util.Prioritized(extension.NewStrikethroughHTMLRenderer(), 500),
		util.Prioritized(&footnoteRenderer{m: m}, 500),
		util.Prioritized(&nodeRenderer{m: m}, 100),
	))
	m.md = goldmark.New(
		goldmark.WithParser(p),
		goldmark.WithRenderer(r),
		goldmark.WithExtensions(extension.Table),
	)
	m.versions = v
	return m.md
}

// Convert runs src through every stage. item may be nil.
func (m *Markdown) Convert(ctx context.Context, src string, item Item) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Reset()
	doc := newDocument(ctx, item, m.view, &m.stash)
	m.doc = doc

	lines := strings.Split(src, "\n")
	for _, name := range m.Preprocessors.Names() {
		pp, _ := m.Preprocessors.Get(name)
		out, err := pp.Run(doc, lines)
		if err != nil {
			return nil, stageError(err, "preprocess", name, doc)
		}
		lines = out
	}
	source := []byte(strings.Join(lines, "\n"))

	md := m.engine()
	pc := parser.NewContext()
	pc.Set(documentKey, doc)
	root := md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))
	if err := doc.Err(); err != nil {
		return nil, stageError(err, "parse", "block", doc)
	}

	for _, name := range m.TreeProcessors.Names() {
		tp, _ := m.TreeProcessors.Get(name)
		if err := tp.Run(doc, root, source); err != nil {
			return nil, stageError(err, "tree", name, doc)
		}
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, source, root); err != nil {
		return nil, stageError(err, "render", "html", doc)
	}
	out := buf.String()

	for _, name := range m.Postprocessors.Names() {
		pp, _ := m.Postprocessors.Get(name)
		var err error
		if out, err = pp.Run(doc, out); err != nil {
			return nil, stageError(err, "postprocess", name, doc)
		}
	}

	m.logger.Debug("Converted document", logfields.Path(doc.Path()), logfields.Count(len(out)))
	return &Result{HTML: out, Title: doc.Title, Meta: doc.Meta}, nil
}

// stageError keeps classified errors as they are and wraps anything else
// as a markdown error naming the pass.
func stageError(err error, stage, pass string, doc *Document) error {
	if _, ok := ferrors.AsClassified(err); ok {
		return err
	}
	return ferrors.WrapError(err, ferrors.CategoryMarkdown, "markdown pass failed").
		WithContext("stage", stage).
		WithContext("pass", pass).
		WithContext("document", doc.Path()).
		Build()
}
