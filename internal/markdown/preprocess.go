package markdown

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"git.home.luguber.info/inful/bang/internal/config"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
	"git.home.luguber.info/inful/bang/internal/frontmatter"
)

// Preprocessor rewrites the source lines before parsing.
type Preprocessor interface {
	Run(doc *Document, lines []string) ([]string, error)
}

// PreprocessorFunc adapts a function to Preprocessor.
type PreprocessorFunc func(doc *Document, lines []string) ([]string, error)

func (f PreprocessorFunc) Run(doc *Document, lines []string) ([]string, error) {
	return f(doc, lines)
}

// normalizeLines strips carriage returns and placeholder delimiters.
func normalizeLines(_ *Document, lines []string) ([]string, error) {
	for i, l := range lines {
		lines[i] = stripControl(strings.TrimRight(l, "\r"))
	}
	return lines, nil
}

// extractMeta removes the metadata header and stores it on the document.
func extractMeta(doc *Document, lines []string) ([]string, error) {
	meta, rest, err := frontmatter.Split(lines)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryContent, "invalid metadata header").
			WithContext("document", doc.Path()).
			Build()
	}
	for k, v := range meta {
		doc.Meta[k] = v
	}
	return rest, nil
}

var fenceOpen = regexp.MustCompile("^[ ]{0,3}(`{3,}|~{3,})[ \t]*([A-Za-z0-9_+#.-]*)[^`]*$")

// fencedCode replaces fenced code blocks with stash placeholders holding
// the escaped, optionally highlighted, code.
type fencedCode struct{}

func (fencedCode) Run(doc *Document, lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		m := fenceOpen.FindStringSubmatch(lines[i])
		if m == nil {
			out = append(out, lines[i])
			continue
		}
		fence, lang := m[1], strings.ToLower(m[2])
		end := -1
		for j := i + 1; j < len(lines); j++ {
			t := strings.TrimSpace(lines[j])
			if strings.HasPrefix(t, fence) && strings.Trim(t, fence[:1]) == "" {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, lines[i])
			continue
		}
		code := strings.Join(lines[i+1:end], "\n")
		if end > i+1 {
			code += "\n"
		}
		ph := doc.Stash.Store(renderCode(doc.View, lang, code))
		out = append(out, "", ph, "")
		i = end
	}
	return out, nil
}

func renderCode(view config.View, lang, code string) string {
	class := "codeblock"
	if lang != "" {
		class += " " + lang
	}
	body := html.EscapeString(code)
	if view.Bool(config.KeyHighlightCode, false) && lang != "" {
		if hl, ok := highlight(lang, code, view.String(config.KeyCodeStyle)); ok {
			body = hl
		}
	}
	return `<pre><code class="` + class + `">` + body + `</code></pre>`
}

// highlight renders code as class-annotated spans. The surrounding pre is
// left to the caller.
func highlight(lang, code, style string) (string, bool) {
	lexer := lexers.Get(lang)
	if lexer == nil {
		return "", false
	}
	lexer = chroma.Coalesce(lexer)
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", false
	}
	var buf bytes.Buffer
	f := chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true), chromahtml.TabWidth(4))
	if err := f.Format(&buf, styles.Get(style), it); err != nil {
		return "", false
	}
	return buf.String(), true
}

var definitionLine = regexp.MustCompile(`^[ ]{0,3}\[\^?[^\]]+\]:`)

// footnotePosition puts a blank line before every reference or footnote
// definition that directly follows a non-blank line, so each definition
// parses as its own block.
func footnotePosition(_ *Document, lines []string) ([]string, error) {
	out := make([]string, 0, len(lines))
	for i, l := range lines {
		if i > 0 && definitionLine.MatchString(l) && strings.TrimSpace(lines[i-1]) != "" {
			out = append(out, "")
		}
		out = append(out, l)
	}
	return out, nil
}
