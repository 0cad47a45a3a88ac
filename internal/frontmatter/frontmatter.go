// Package frontmatter reads the metadata header at the top of a content file.
//
// Two header styles are accepted. A YAML block fenced by "---" lines, and
// a block of "Key: Value" lines ended by the first blank line, where
// indented lines continue the previous value.
package frontmatter

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Meta holds header fields keyed by lowercased name.
type Meta map[string]any

// String returns field key as a string. Lists are joined with ", ". YAML
// dates come back as "2006-01-02" when they carry no time of day.
func (m Meta) String(key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case []any:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			if s, ok := p.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case time.Time:
		if v.Equal(v.Truncate(24*time.Hour)) && v.Location() == time.UTC {
			return v.Format(time.DateOnly)
		}
		return v.Format(time.RFC3339)
	case nil:
		return ""
	default:
		b, _ := yaml.Marshal(v)
		return strings.TrimSpace(string(b))
	}
}

// Has reports whether key is present.
func (m Meta) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// ErrMissingClosingDelimiter is returned for a YAML header that never ends.
var ErrMissingClosingDelimiter = errors.New("front matter opened with --- but never closed")

var (
	keyLine  = regexp.MustCompile(`^[ ]{0,3}([A-Za-z0-9_-]+):(?:[ \t]+(.*))?$`)
	contLine = regexp.MustCompile(`^[ ]{4,}(.*)$`)
)

// Split removes the header from lines and returns its fields. When lines
// carry no header, meta is empty and rest is lines unchanged.
func Split(lines []string) (meta Meta, rest []string, err error) {
	meta = Meta{}
	if len(lines) == 0 {
		return meta, lines, nil
	}
	if strings.TrimRight(lines[0], " \t\r") == "---" {
		return splitYAML(lines)
	}

	key := ""
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			return meta, lines[i+1:], nil
		}
		if m := keyLine.FindStringSubmatch(line); m != nil {
			key = strings.ToLower(m[1])
			meta[key] = strings.TrimSpace(m[2])
			continue
		}
		if m := contLine.FindStringSubmatch(line); m != nil && key != "" {
			prev, _ := meta[key].(string)
			if prev == "" {
				meta[key] = strings.TrimSpace(m[1])
			} else {
				meta[key] = prev + "\n" + strings.TrimSpace(m[1])
			}
			continue
		}
		// Not a header line: the document has no header, or it ended
		// without a blank line before the body.
		if i == 0 {
			return Meta{}, lines, nil
		}
		return meta, lines[i:], nil
	}
	return meta, nil, nil
}

func splitYAML(lines []string) (Meta, []string, error) {
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t\r") != "---" {
			continue
		}
		fields, err := ParseYAML(strings.Join(lines[1:i], "\n"))
		if err != nil {
			return nil, nil, err
		}
		return fields, lines[i+1:], nil
	}
	return nil, nil, ErrMissingClosingDelimiter
}

// ParseYAML parses a YAML header body. Keys are lowercased.
func ParseYAML(src string) (Meta, error) {
	var fields map[string]any
	if err := yaml.Unmarshal([]byte(src), &fields); err != nil {
		return nil, err
	}
	meta := make(Meta, len(fields))
	for k, v := range fields {
		meta[strings.ToLower(k)] = v
	}
	return meta, nil
}
