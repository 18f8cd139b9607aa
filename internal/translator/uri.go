// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package translator

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the catalog URI scheme.
const Scheme = "dleyna"

// RootURI addresses the list of all servers.
const RootURI = Scheme + ":"

var (
	// ErrInvalidURI is returned for strings that are not catalog URIs.
	ErrInvalidURI = errors.New("invalid catalog uri")
	// ErrPathOutsideRoot is returned for object paths not under a server root.
	ErrPathOutsideRoot = errors.New("object path outside server root")
)

// URI is a decomposed catalog URI: dleyna://<udn>/<path>?<query>. Path is
// relative to the server's root object and carries no leading slash.
type URI struct {
	UDN      string
	Path     string
	RawQuery string
}

// Compose returns the URI for relpath on the server udn.
func Compose(udn, relpath string) string {
	return URI{UDN: udn, Path: relpath}.String()
}

// ComposeFilter returns a URI scoped to relpath that selects the objects
// matching the search expression filter.
func ComposeFilter(udn, relpath, filter string) string {
	return URI{UDN: udn, Path: relpath, RawQuery: url.QueryEscape(filter)}.String()
}

// SearchURI returns the root URI carrying an encoded search request.
func SearchURI(q url.Values) string {
	if len(q) == 0 {
		return RootURI
	}
	return RootURI + "?" + q.Encode()
}

// String encodes u. A URI without UDN is the root.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteByte(':')
	if u.UDN != "" {
		b.WriteString("//")
		b.WriteString(escapeHost(u.UDN))
		if u.Path != "" {
			for _, seg := range strings.Split(u.Path, "/") {
				b.WriteByte('/')
				b.WriteString(url.PathEscape(seg))
			}
		}
	}
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String()
}

// IsRoot reports whether u addresses the server list.
func (u URI) IsRoot() bool {
	return u.UDN == ""
}

// Filter returns the decoded search expression of a filter URI, or the
// empty string when u has none.
func (u URI) Filter() (string, error) {
	if u.RawQuery == "" {
		return "", nil
	}
	f, err := url.QueryUnescape(u.RawQuery)
	if err != nil {
		return "", fmt.Errorf("%w: query: %v", ErrInvalidURI, err)
	}
	return f, nil
}

// Decompose parses a catalog URI.
func Decompose(s string) (URI, error) {
	rest, ok := strings.CutPrefix(s, Scheme+":")
	if !ok {
		return URI{}, fmt.Errorf("%w: %q: scheme", ErrInvalidURI, s)
	}
	var u URI
	rest, u.RawQuery, _ = strings.Cut(rest, "?")
	if rest == "" {
		return u, nil
	}
	rest, ok = strings.CutPrefix(rest, "//")
	if !ok {
		return URI{}, fmt.Errorf("%w: %q: missing authority", ErrInvalidURI, s)
	}
	host, path, _ := strings.Cut(rest, "/")
	udn, err := url.PathUnescape(host)
	if err != nil || udn == "" {
		return URI{}, fmt.Errorf("%w: %q: host", ErrInvalidURI, s)
	}
	u.UDN = udn
	if path != "" {
		segs := strings.Split(path, "/")
		for i, seg := range segs {
			if segs[i], err = url.PathUnescape(seg); err != nil {
				return URI{}, fmt.Errorf("%w: %q: path", ErrInvalidURI, s)
			}
		}
		u.Path = strings.Join(segs, "/")
	}
	return u, nil
}

// IsRoot reports whether s is the root URI.
func IsRoot(s string) bool {
	u, err := Decompose(s)
	return err == nil && u.IsRoot() && u.RawQuery == ""
}

// RelPath returns path relative to root, without a leading slash.
func RelPath(root, path string) (string, error) {
	if path == root {
		return "", nil
	}
	rel, ok := strings.CutPrefix(path, strings.TrimSuffix(root, "/")+"/")
	if !ok || root == "" {
		return "", fmt.Errorf("%w: %s not under %s", ErrPathOutsideRoot, path, root)
	}
	return rel, nil
}

// JoinPath is the inverse of RelPath.
func JoinPath(root, rel string) string {
	if rel == "" {
		return root
	}
	return strings.TrimSuffix(root, "/") + "/" + rel
}

// escapeHost percent-encodes every byte of a UDN that is not allowed in a
// URI authority. Colons are kept, so "uuid:..." stays readable.
func escapeHost(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if hostSafe(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

func hostSafe(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()*+,;=:@", c) >= 0
}
