// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package dleyna

import (
	"maps"
	"slices"
)

// Server describes one media server as reported by its device properties.
type Server struct {
	UDN          string         `mapstructure:"UDN"`
	FriendlyName string         `mapstructure:"FriendlyName"`
	Path         string         `mapstructure:"Path"`
	SearchCaps   []string       `mapstructure:"SearchCaps"`
	SortCaps     []string       `mapstructure:"SortCaps"`
	Extra        map[string]any `mapstructure:",remain"`
}

// CanSearch reports whether field may be used in search expressions.
func (s Server) CanSearch(field string) bool {
	return hasCap(s.SearchCaps, field)
}

// CanSort reports whether field may be used in sort expressions.
func (s Server) CanSort(field string) bool {
	return hasCap(s.SortCaps, field)
}

// Clone returns a deep copy safe to hand across goroutines.
func (s Server) Clone() Server {
	s.SearchCaps = slices.Clone(s.SearchCaps)
	s.SortCaps = slices.Clone(s.SortCaps)
	s.Extra = maps.Clone(s.Extra)
	return s
}

func hasCap(caps []string, field string) bool {
	for _, c := range caps {
		if c == field || c == Wildcard {
			return true
		}
	}
	return false
}

// Object is the attribute bag of one media object. Properties the catalog
// does not model are kept in Extra.
type Object struct {
	Path        string         `mapstructure:"Path"`
	RefPath     string         `mapstructure:"RefPath"`
	Parent      string         `mapstructure:"Parent"`
	DisplayName string         `mapstructure:"DisplayName"`
	Type        string         `mapstructure:"Type"`
	TypeEx      string         `mapstructure:"TypeEx"`
	Album       string         `mapstructure:"Album"`
	Artist      string         `mapstructure:"Artist"`
	Artists     []string       `mapstructure:"Artists"`
	Creator     string         `mapstructure:"Creator"`
	Genre       string         `mapstructure:"Genre"`
	Date        string         `mapstructure:"Date"`
	TrackNumber int            `mapstructure:"TrackNumber"`
	Duration    int            `mapstructure:"Duration"` // seconds
	AlbumArtURL string         `mapstructure:"AlbumArtURL"`
	URLs        []string       `mapstructure:"URLs"`
	ChildCount  int            `mapstructure:"ChildCount"`
	ItemCount   int            `mapstructure:"ItemCount"`
	Extra       map[string]any `mapstructure:",remain"`
}

// Kind returns the most specific type known for the object.
func (o Object) Kind() string {
	if o.TypeEx != "" {
		return o.TypeEx
	}
	return o.Type
}

// ObjectPath returns the path the object should be addressed by; references
// resolve to the object they point at.
func (o Object) ObjectPath() string {
	if o.RefPath != "" {
		return o.RefPath
	}
	return o.Path
}

// IsPlayable reports whether the object is an audio item.
func (o Object) IsPlayable() bool {
	return o.Type == TypeMusic || o.Type == TypeAudio
}

// IsContainer reports whether the object has children.
func (o Object) IsContainer() bool {
	return o.Type == TypeContainer
}

// Listing is one page of a ListChildren call. Returned counts every entry
// of the reply, including entries that could not be decoded, and is what
// the server's offset advances by.
type Listing struct {
	Objects  []Object
	Returned int
}

// SearchResult is one page of a SearchObjects call. Total is the number of
// matches the server reported, or zero if it did not know.
type SearchResult struct {
	Objects  []Object
	Returned int
	Total    int
}
