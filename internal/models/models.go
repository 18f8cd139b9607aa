// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package models defines the catalog-facing domain types.
package models

// RefType is the kind of object a Ref points at.
type RefType string

const (
	RefDirectory RefType = "directory"
	RefTrack     RefType = "track"
	RefAlbum     RefType = "album"
	RefArtist    RefType = "artist"
	RefPlaylist  RefType = "playlist"
)

// Ref is a lightweight reference returned by browse.
type Ref struct {
	Type RefType `json:"type"`
	URI  string  `json:"uri"`
	Name string  `json:"name"`
}

// Artist is a performer or creator.
type Artist struct {
	URI  string `json:"uri,omitempty"`
	Name string `json:"name"`
}

// Album groups tracks. NumTracks is zero when unknown.
type Album struct {
	URI       string   `json:"uri,omitempty"`
	Name      string   `json:"name"`
	Artists   []Artist `json:"artists,omitempty"`
	NumTracks int      `json:"num_tracks,omitempty"`
}

// Track is a playable item. Length is in milliseconds, zero when unknown.
type Track struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name"`
	Album   *Album   `json:"album,omitempty"`
	Artists []Artist `json:"artists,omitempty"`
	Genre   string   `json:"genre,omitempty"`
	Date    string   `json:"date,omitempty"`
	TrackNo int      `json:"track_no,omitempty"`
	Length  int      `json:"length,omitempty"`
}

// Image is a cover-art reference. Only the URL is carried, never the bytes.
type Image struct {
	URI string `json:"uri"`
}

// SearchResult buckets search matches by kind.
type SearchResult struct {
	URI     string   `json:"uri"`
	Albums  []Album  `json:"albums"`
	Artists []Artist `json:"artists"`
	Tracks  []Track  `json:"tracks"`
}

// Model is implemented by Track, Album and Artist.
type Model interface {
	ModelURI() string
}

// ModelURI implements Model.
func (t Track) ModelURI() string { return t.URI }

// ModelURI implements Model.
func (a Album) ModelURI() string { return a.URI }

// ModelURI implements Model.
func (a Artist) ModelURI() string { return a.URI }
