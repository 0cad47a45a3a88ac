package registry

import (
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/bang/internal/foundation/errors"
)

type placementKind int

const (
	kindLiteral placementKind = iota
	kindBegin
	kindEnd
	kindAnchored
)

// Placement describes where a new entry goes. Build one with At, Begin,
// End, Before, After or ParsePlacement.
type Placement struct {
	kind   placementKind
	value  float64
	before []string
	after  []string
}

// At places the entry at a literal priority.
func At(priority float64) Placement { return Placement{kind: kindLiteral, value: priority} }

var (
	// Begin places the entry above everything registered so far.
	Begin = Placement{kind: kindBegin}
	// End places the entry below everything registered so far.
	End = Placement{kind: kindEnd}
)

// Before places the entry just above the named entries, so it runs first.
func Before(names ...string) Placement {
	return Placement{kind: kindAnchored, before: names}
}

// After places the entry just below the named entries.
func After(names ...string) Placement {
	return Placement{kind: kindAnchored, after: names}
}

// And merges the anchors of two anchored placements.
func (p Placement) And(o Placement) Placement {
	return Placement{
		kind:   kindAnchored,
		before: append(append([]string(nil), p.before...), o.before...),
		after:  append(append([]string(nil), p.after...), o.after...),
	}
}

func (p Placement) String() string {
	switch p.kind {
	case kindBegin:
		return "_begin"
	case kindEnd:
		return "_end"
	case kindAnchored:
		var parts []string
		for _, n := range p.before {
			parts = append(parts, "<"+n)
		}
		for _, n := range p.after {
			parts = append(parts, ">"+n)
		}
		return strings.Join(parts, ",")
	default:
		return strconv.FormatFloat(p.value, 'f', -1, 64)
	}
}

// ParsePlacement reads the textual placement form used in configuration:
// a number, "_begin", "_end", or a comma or space separated list of
// "<name" (above name) and ">name" (below name) anchors.
func ParsePlacement(s string) (Placement, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "_begin":
		return Begin, nil
	case "_end":
		return End, nil
	case "":
		return Placement{}, ferrors.NewError(ferrors.CategoryValidation, "empty placement").Build()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return At(f), nil
	}

	p := Placement{kind: kindAnchored}
	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' }) {
		if len(tok) < 2 {
			return Placement{}, invalidAnchor(s)
		}
		switch tok[0] {
		case '<':
			p.before = append(p.before, tok[1:])
		case '>':
			p.after = append(p.after, tok[1:])
		default:
			return Placement{}, invalidAnchor(s)
		}
	}
	return p, nil
}

func invalidAnchor(s string) error {
	return ferrors.NewError(ferrors.CategoryValidation, "invalid placement").
		WithContext("placement", s).
		Build()
}
