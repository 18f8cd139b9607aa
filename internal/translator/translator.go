// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package translator maps between catalog URIs and dLeyna object paths and
// converts dLeyna objects into domain models.
package translator

import (
	"errors"
	"fmt"

	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/query"
)

// ErrUnsupportedType matches every *UnsupportedTypeError.
var ErrUnsupportedType = errors.New("unsupported object type")

// UnsupportedTypeError reports an object that has no domain representation.
type UnsupportedTypeError struct {
	Type string
	Path string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("object type %q not supported (%s)", e.Type, e.Path)
}

// Is reports whether target is ErrUnsupportedType.
func (e *UnsupportedTypeError) Is(target error) bool {
	return target == ErrUnsupportedType
}

var refTypes = map[string]models.RefType{
	dleyna.TypeMusic:         models.RefTrack,
	dleyna.TypeAudio:         models.RefTrack,
	dleyna.TypeContainer:     models.RefDirectory,
	dleyna.TypeStorageFolder: models.RefDirectory,
	dleyna.TypeGenre:         models.RefDirectory,
	dleyna.TypeAlbum:         models.RefAlbum,
	dleyna.TypeArtist:        models.RefArtist,
	dleyna.TypePlaylist:      models.RefPlaylist,
}

// refType resolves the fine type first and falls back to the coarse one.
func refType(obj dleyna.Object) (models.RefType, error) {
	if t, ok := refTypes[obj.TypeEx]; ok {
		return t, nil
	}
	if t, ok := refTypes[obj.Type]; ok {
		return t, nil
	}
	return "", &UnsupportedTypeError{Type: obj.Kind(), Path: obj.Path}
}

// Translator converts the objects of one server.
type Translator struct {
	srv dleyna.Server
}

// New returns a translator for objects of srv.
func New(srv dleyna.Server) *Translator {
	return &Translator{srv: srv}
}

// Server returns the server the translator is bound to.
func (t *Translator) Server() dleyna.Server {
	return t.srv
}

// ServerURI returns the URI of the server's root container.
func ServerURI(srv dleyna.Server) string {
	return Compose(srv.UDN, "")
}

// ServerRef returns the directory reference for a server.
func ServerRef(srv dleyna.Server) models.Ref {
	return models.Ref{Type: models.RefDirectory, URI: ServerURI(srv), Name: srv.FriendlyName}
}

// ObjectURI returns the URI of obj. References are addressed by the
// object they point at.
func ObjectURI(srv dleyna.Server, obj dleyna.Object) (string, error) {
	rel, err := RelPath(srv.Path, obj.ObjectPath())
	if err != nil {
		return "", err
	}
	return Compose(srv.UDN, rel), nil
}

// NativePath returns the object path addressed by u on srv.
func NativePath(srv dleyna.Server, u URI) string {
	return JoinPath(srv.Path, u.Path)
}

// URI returns the catalog URI of obj.
func (t *Translator) URI(obj dleyna.Object) (string, error) {
	return ObjectURI(t.srv, obj)
}

// Ref returns a browse reference for obj.
func (t *Translator) Ref(obj dleyna.Object) (models.Ref, error) {
	rt, err := refType(obj)
	if err != nil {
		return models.Ref{}, err
	}
	uri, err := t.URI(obj)
	if err != nil {
		return models.Ref{}, err
	}
	return models.Ref{Type: rt, URI: uri, Name: obj.DisplayName}, nil
}

// Model returns the full Track, Album or Artist for obj.
func (t *Translator) Model(obj dleyna.Object) (models.Model, error) {
	rt, err := refType(obj)
	if err != nil {
		return nil, err
	}
	switch rt {
	case models.RefTrack:
		return t.Track(obj)
	case models.RefAlbum:
		return t.Album(obj)
	case models.RefArtist:
		return t.Artist(obj)
	default:
		return nil, &UnsupportedTypeError{Type: obj.Kind(), Path: obj.Path}
	}
}

// Track converts a music or audio item. Album and artists are not native
// objects; their URIs select matching items below the track's parent.
func (t *Translator) Track(obj dleyna.Object) (models.Track, error) {
	if !obj.IsPlayable() {
		return models.Track{}, &UnsupportedTypeError{Type: obj.Kind(), Path: obj.Path}
	}
	uri, err := t.URI(obj)
	if err != nil {
		return models.Track{}, err
	}
	track := models.Track{
		URI:     uri,
		Name:    obj.DisplayName,
		Artists: t.artists(obj),
		Genre:   obj.Genre,
		Date:    obj.Date,
		TrackNo: obj.TrackNumber,
		Length:  obj.Duration * 1000,
	}
	if obj.Album != "" {
		track.Album = &models.Album{
			URI:  t.scoped(obj, query.Equals("Album", obj.Album)),
			Name: obj.Album,
		}
	}
	return track, nil
}

// Album converts a music album container.
func (t *Translator) Album(obj dleyna.Object) (models.Album, error) {
	uri, err := t.URI(obj)
	if err != nil {
		return models.Album{}, err
	}
	n := obj.ItemCount
	if n == 0 {
		n = obj.ChildCount
	}
	return models.Album{
		URI:       uri,
		Name:      obj.DisplayName,
		Artists:   t.artists(obj),
		NumTracks: n,
	}, nil
}

// Artist converts a music artist container.
func (t *Translator) Artist(obj dleyna.Object) (models.Artist, error) {
	uri, err := t.URI(obj)
	if err != nil {
		return models.Artist{}, err
	}
	return models.Artist{URI: uri, Name: obj.DisplayName}, nil
}

// artists prefers the Artists list, then Artist, then Creator.
func (t *Translator) artists(obj dleyna.Object) []models.Artist {
	field, names := "Artist", obj.Artists
	switch {
	case len(names) > 0:
	case obj.Artist != "":
		names = []string{obj.Artist}
	case obj.Creator != "":
		field, names = "Creator", []string{obj.Creator}
	}
	var out []models.Artist
	for _, name := range names {
		if name == "" {
			continue
		}
		out = append(out, models.Artist{URI: t.scoped(obj, query.Equals(field, name)), Name: name})
	}
	return out
}

// scoped builds a filter URI below obj's parent container. Objects without
// a usable parent are scoped to the server root.
func (t *Translator) scoped(obj dleyna.Object, filter string) string {
	rel, err := RelPath(t.srv.Path, obj.Parent)
	if err != nil {
		rel = ""
	}
	return ComposeFilter(t.srv.UDN, rel, filter)
}

// Images returns the cover art of obj, if it has any.
func Images(obj dleyna.Object) []models.Image {
	if obj.AlbumArtURL == "" {
		return nil
	}
	return []models.Image{{URI: obj.AlbumArtURL}}
}
