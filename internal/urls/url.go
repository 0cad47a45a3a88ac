// Package urls classifies and resolves the URLs found in rendered content.
package urls

import (
	"net/url"
	"path"
	"strings"
)

// URL wraps a parsed URL with the classification rules used by link
// rewriting.
type URL struct {
	raw string
	u   *url.URL
}

// Parse parses raw. Unparseable input yields a URL that classifies as
// relative and resolves to itself.
func Parse(raw string) URL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return URL{raw: raw}
	}
	return URL{raw: raw, u: u}
}

func (u URL) String() string {
	if u.u == nil {
		return u.raw
	}
	return u.u.String()
}

// Valid reports whether the input parsed.
func (u URL) Valid() bool { return u.u != nil }

// IsProtocolRelative reports a "//host/..." URL.
func (u URL) IsProtocolRelative() bool {
	return u.u != nil && u.u.Scheme == "" && strings.HasPrefix(strings.TrimSpace(u.raw), "//")
}

// IsAbsolute reports a URL with a scheme, or a protocol-relative URL.
func (u URL) IsAbsolute() bool {
	return u.u != nil && (u.u.Scheme != "" || u.IsProtocolRelative())
}

// IsPathRooted reports a scheme-less, host-less URL starting with "/".
func (u URL) IsPathRooted() bool {
	return u.u != nil && !u.IsAbsolute() && strings.HasPrefix(u.u.Path, "/")
}

// IsFragment reports a URL that only names an anchor on the current page.
func (u URL) IsFragment() bool {
	return u.u != nil && !u.IsAbsolute() && u.u.Path == "" && u.u.RawQuery == "" && u.u.Fragment != ""
}

// IsRelative reports anything that is neither absolute nor path-rooted.
func (u URL) IsRelative() bool {
	return !u.IsAbsolute() && !u.IsPathRooted()
}

// Host returns the lowercased host, empty when there is none.
func (u URL) Host() string {
	if u.u == nil {
		return ""
	}
	return strings.ToLower(u.u.Hostname())
}

// SameHost reports whether both URLs name the same host. Two host-less
// URLs compare equal.
func (u URL) SameHost(o URL) bool { return u.Host() == o.Host() }

// Path returns the URL path.
func (u URL) Path() string {
	if u.u == nil {
		return u.raw
	}
	return u.u.Path
}

// Basename returns the last path segment.
func (u URL) Basename() string {
	p := u.Path()
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	return path.Base(p)
}

// Query returns the parsed query string.
func (u URL) Query() url.Values {
	if u.u == nil {
		return url.Values{}
	}
	return u.u.Query()
}

// ResolveAgainst resolves u relative to base. Absolute URLs are returned
// unchanged. A protocol-relative base keeps its missing scheme.
func (u URL) ResolveAgainst(base string) string {
	if u.u == nil || u.IsAbsolute() || base == "" {
		return u.String()
	}
	b, err := url.Parse(base)
	if err != nil {
		return u.String()
	}
	return b.ResolveReference(u.u).String()
}

// Join appends a path-rooted URL to a base URL such as "//ex.com".
func Join(base, rooted string) string {
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(rooted, "/")
}
