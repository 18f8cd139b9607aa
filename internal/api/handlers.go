// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"cmp"
	"encoding/json"
	"net/http"
	"slices"

	"github.com/ManuGH/dlcat/internal/catalog"
	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/translator"
)

const maxBodyBytes = 1 << 20

// ServerInfo is one registered media server.
type ServerInfo struct {
	UDN        string   `json:"udn"`
	Name       string   `json:"name"`
	Path       string   `json:"path"`
	URI        string   `json:"uri"`
	SearchCaps []string `json:"searchCaps"`
	SortCaps   []string `json:"sortCaps"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query query.Query `json:"query"`
	URIs  []string    `json:"uris,omitempty"`
	Exact bool        `json:"exact,omitempty"`
}

// PlaybackResponse carries the resolved stream URL of an item.
type PlaybackResponse struct {
	URI string `json:"uri"`
	URL string `json:"url"`
}

// BrowseResponse lists the children of a directory.
type BrowseResponse struct {
	URI  string       `json:"uri"`
	Refs []models.Ref `json:"refs"`
}

func (s *Server) handleServers(w http.ResponseWriter, _ *http.Request) {
	servers := s.servers.List()
	slices.SortFunc(servers, func(a, b dleyna.Server) int {
		if c := cmp.Compare(a.FriendlyName, b.FriendlyName); c != 0 {
			return c
		}
		return cmp.Compare(a.UDN, b.UDN)
	})

	out := make([]ServerInfo, 0, len(servers))
	for _, srv := range servers {
		out = append(out, ServerInfo{
			UDN:        srv.UDN,
			Name:       srv.FriendlyName,
			Path:       srv.Path,
			URI:        translator.ServerURI(srv),
			SearchCaps: nonNil(srv.SearchCaps),
			SortCaps:   nonNil(srv.SortCaps),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		uri = catalog.RootURI
	}
	refs, err := s.catalog.Browse(r.Context(), uri)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if refs == nil {
		refs = []models.Ref{}
	}
	writeJSON(w, http.StatusOK, BrowseResponse{URI: uri, Refs: refs})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	uri, ok := requireURI(w, r)
	if !ok {
		return
	}
	tracks, err := s.catalog.Lookup(r.Context(), uri)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, r, "invalid search request: "+err.Error())
		return
	}
	res, err := s.catalog.Search(r.Context(), req.Query, req.URIs, req.Exact)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	uris := r.URL.Query()["uri"]
	if len(uris) == 0 {
		writeBadRequest(w, r, "at least one uri parameter is required")
		return
	}
	images, err := s.catalog.GetImages(r.Context(), uris)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, images)
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	uri, ok := requireURI(w, r)
	if !ok {
		return
	}
	url, err := s.catalog.TranslateURI(r.Context(), uri)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PlaybackResponse{URI: uri, URL: url})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Refresh(r.Context(), r.URL.Query().Get("uri")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func requireURI(w http.ResponseWriter, r *http.Request) (string, bool) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeBadRequest(w, r, "uri parameter is required")
		return "", false
	}
	return uri, true
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
