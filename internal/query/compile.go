// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package query compiles structured catalog queries into dLeyna search
// expressions, limited to the attributes a server advertises.
package query

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/dlcat/internal/dleyna"
)

// Query maps a field tag to the values it must match. Multiple values of one
// tag must all match.
type Query map[string][]string

// Field tags understood by Compile.
const (
	TagAny         = "any"
	TagAlbum       = "album"
	TagArtist      = "artist"
	TagAlbumArtist = "albumartist"
	TagGenre       = "genre"
	TagDate        = "date"
	TagTrackName   = "track_name"
	TagTrackNo     = "track_no"
)

// Wildcard is the expression matching every object.
const Wildcard = "*"

// PlayableFilter matches music and audio items.
const PlayableFilter = `Type = "music" or Type = "audio"`

type rule struct {
	// attrs are matched as a disjunction; only the supported subset is used.
	attrs []string
	// requires must all be searchable for the tag to compile.
	requires []string
	// scope is appended to every clause when its attribute is searchable.
	scope      string
	scopeAttr  string
	exactMatch bool
}

var rules = map[string]rule{
	TagAny:         {attrs: []string{"DisplayName", "Album", "Artist", "Genre", "Creator"}},
	TagAlbum:       {attrs: []string{"Album"}},
	TagArtist:      {attrs: []string{"Artist", "Creator"}},
	TagAlbumArtist: {attrs: []string{"Artist", "Creator"}, scope: `Type derivedfrom "container.album"`, scopeAttr: "Type"},
	TagGenre:       {attrs: []string{"Genre"}},
	TagDate:        {attrs: []string{"Date"}, exactMatch: true},
	TagTrackName:   {attrs: []string{"DisplayName"}, requires: []string{"Type"}, scope: `Type = "music"`, scopeAttr: "Type"},
	TagTrackNo:     {attrs: []string{"TrackNumber"}, exactMatch: true},
}

// Compile translates q into a search expression for a server with the given
// capabilities. Values are compared with "=" when exact is set and with
// "contains" otherwise. Tags are processed in sorted order, so the result is
// deterministic and an error names the first offending tag in that order.
// A query without values compiles to Wildcard.
func Compile(q Query, exact bool, caps Caps) (string, error) {
	tags := make([]string, 0, len(q))
	for tag, values := range q {
		if len(values) > 0 {
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)

	op := "contains"
	if exact {
		op = "="
	}

	var clauses []string
	for _, tag := range tags {
		r, ok := rules[tag]
		if !ok {
			return "", &UnsupportedFieldError{Field: tag, Reason: ReasonUnknown}
		}
		attrs := r.supported(caps)
		if attrs == nil {
			return "", &UnsupportedFieldError{Field: tag, Reason: ReasonDevice}
		}
		tagOp := op
		if r.exactMatch {
			tagOp = "="
		}
		for _, value := range q[tag] {
			clauses = append(clauses, r.clause(attrs, tagOp, value, caps))
		}
	}
	if len(clauses) == 0 {
		return Wildcard, nil
	}
	return "(" + strings.Join(clauses, ") and (") + ")", nil
}

func (r rule) supported(caps Caps) []string {
	for _, req := range r.requires {
		if !caps.Has(req) {
			return nil
		}
	}
	var attrs []string
	for _, a := range r.attrs {
		if caps.Has(a) {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func (r rule) clause(attrs []string, op, value string, caps Caps) string {
	quoted := Quote(value)
	terms := make([]string, len(attrs))
	for i, a := range attrs {
		terms[i] = a + " " + op + " " + quoted
	}
	expr := strings.Join(terms, " or ")
	if r.scope == "" || !caps.Has(r.scopeAttr) {
		return expr
	}
	if len(terms) > 1 {
		expr = "(" + expr + ")"
	}
	return expr + " and " + r.scope
}

// Quote returns value as a double-quoted search literal. The value is NFC
// normalized; backslashes and double quotes are escaped.
func Quote(value string) string {
	s := norm.NFC.String(value)
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Equals returns the expression `field = "value"`.
func Equals(field, value string) string {
	return field + " = " + Quote(value)
}

// PathIn matches objects whose Path is one of paths.
func PathIn(paths []string) string {
	terms := make([]string, len(paths))
	for i, p := range paths {
		terms[i] = Equals("Path", p)
	}
	return strings.Join(terms, " or ")
}

// And conjoins expressions, dropping wildcards. It returns Wildcard when
// nothing remains.
func And(exprs ...string) string {
	var parts []string
	for _, e := range exprs {
		if e == "" || e == Wildcard {
			continue
		}
		parts = append(parts, e)
	}
	switch len(parts) {
	case 0:
		return Wildcard
	case 1:
		return parts[0]
	}
	return "(" + strings.Join(parts, ") and (") + ")"
}

// SearchCaps returns the capability set advertised by srv.
func SearchCaps(srv dleyna.Server) Caps {
	return NewCaps(srv.SearchCaps)
}
