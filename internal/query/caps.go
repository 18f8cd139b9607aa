// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package query

import "github.com/ManuGH/dlcat/internal/dleyna"

// Caps is a set of attribute names a server can filter on. The wildcard
// entry "*" makes every attribute available.
type Caps struct {
	all    bool
	fields map[string]struct{}
}

// NewCaps builds a capability set from a server's SearchCaps.
func NewCaps(fields []string) Caps {
	c := Caps{fields: make(map[string]struct{}, len(fields))}
	for _, f := range fields {
		if f == dleyna.Wildcard {
			c.all = true
			continue
		}
		c.fields[f] = struct{}{}
	}
	return c
}

// AllCaps returns a capability set containing every attribute.
func AllCaps() Caps {
	return Caps{all: true}
}

// Has reports whether field is searchable.
func (c Caps) Has(field string) bool {
	if c.all {
		return true
	}
	_, ok := c.fields[field]
	return ok
}
