package markdown

import (
	"fmt"
	"regexp"
	"strings"

	"git.home.luguber.info/inful/bang/internal/config"
	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

// ErrUnbalancedMagicRefs is matched (errors.Is) by the error returned when
// a document's recycled references and definitions do not pair up.
var ErrUnbalancedMagicRefs = ferrors.MarkdownError("unbalanced magic references").Fatal().Build()

// magicQueue pairs uses with definitions of one recycled identifier in
// document order. Whichever side arrives first opens a new id and waits
// for the other side.
type magicQueue struct {
	name  string
	uses  []string
	defs  []string
	newID func() string
}

func (q *magicQueue) use() string {
	if len(q.defs) > 0 {
		id := q.defs[0]
		q.defs = q.defs[1:]
		return id
	}
	id := q.newID()
	q.uses = append(q.uses, id)
	return id
}

func (q *magicQueue) def() string {
	if len(q.uses) > 0 {
		id := q.uses[0]
		q.uses = q.uses[1:]
		return id
	}
	id := q.newID()
	q.defs = append(q.defs, id)
	return id
}

func (q *magicQueue) pending() int { return len(q.uses) + len(q.defs) }

// magicRefs renames every use and definition of the recycled reference id
// (config magic_reference, default "n") to a unique id. Link references
// "[text][n]" pair with "[n]: url" lines and footnotes "[^n]" pair with
// "[^n]: text" lines.
type magicRefs struct{}

const defaultMagicReference = "n"

func (magicRefs) Run(doc *Document, lines []string) ([]string, error) {
	tok := defaultMagicReference
	if doc.View.Has(config.KeyMagicReference) {
		tok = doc.View.String(config.KeyMagicReference)
	}
	if tok == "" {
		return lines, nil
	}
	q := regexp.QuoteMeta(tok)
	var (
		linkDef = regexp.MustCompile(`^([ ]{0,3})\[` + q + `\]:`)
		noteDef = regexp.MustCompile(`^([ ]{0,3})\[\^` + q + `\]:`)
		linkUse = regexp.MustCompile(`\]\[` + q + `\]`)
		noteUse = regexp.MustCompile(`\[\^` + q + `\]`)
	)
	counter := 0
	newID := func() string {
		counter++
		return fmt.Sprintf("magicref-%s-%d", doc.Key(), counter)
	}
	links := &magicQueue{name: "link", newID: newID}
	notes := &magicQueue{name: "footnote", newID: newID}
	rewriteUses := func(s string) string {
		s = noteUse.ReplaceAllStringFunc(s, func(string) string { return "[^" + notes.use() + "]" })
		return linkUse.ReplaceAllStringFunc(s, func(string) string { return "][" + links.use() + "]" })
	}

	touched := false
	for i, line := range lines {
		if !strings.Contains(line, "["+tok+"]") && !strings.Contains(line, "[^"+tok+"]") {
			continue
		}
		touched = true
		switch {
		case noteDef.MatchString(line):
			m := noteDef.FindStringSubmatch(line)
			head := m[1] + "[^" + notes.def() + "]:"
			lines[i] = head + rewriteUses(line[len(m[0]):])
		case linkDef.MatchString(line):
			m := linkDef.FindStringSubmatch(line)
			lines[i] = m[1] + "[" + links.def() + "]:" + line[len(m[0]):]
		default:
			lines[i] = rewriteUses(line)
		}
	}
	if !touched {
		return lines, nil
	}

	for _, mq := range []*magicQueue{links, notes} {
		if mq.pending() > 0 {
			return nil, ferrors.MarkdownError(ErrUnbalancedMagicRefs.Message()).
				WithContext("document", doc.Path()).
				WithContext("queue", mq.name).
				WithContext("pending", mq.pending()).
				Fatal().
				Build()
		}
	}
	return lines, nil
}
