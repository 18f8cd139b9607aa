// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/ManuGH/dlcat/internal/api/middleware"
	"github.com/ManuGH/dlcat/internal/bus"
	"github.com/ManuGH/dlcat/internal/catalog"
	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/future"
	"github.com/ManuGH/dlcat/internal/health"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/registry"
	"github.com/ManuGH/dlcat/internal/resilience"
	"github.com/ManuGH/dlcat/internal/translator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	refs    []models.Ref
	tracks  []models.Track
	result  models.SearchResult
	images  map[string][]models.Image
	url     string
	err     error
	lastURI string
	lastQ   query.Query
	lastIn  []string
	exact   bool
}

func (f *fakeCatalog) Browse(_ context.Context, uri string) ([]models.Ref, error) {
	f.lastURI = uri
	return f.refs, f.err
}

func (f *fakeCatalog) Lookup(_ context.Context, uri string) ([]models.Track, error) {
	f.lastURI = uri
	return f.tracks, f.err
}

func (f *fakeCatalog) Search(_ context.Context, q query.Query, uris []string, exact bool) (models.SearchResult, error) {
	f.lastQ, f.lastIn, f.exact = q, uris, exact
	return f.result, f.err
}

func (f *fakeCatalog) GetImages(_ context.Context, uris []string) (map[string][]models.Image, error) {
	f.lastIn = uris
	return f.images, f.err
}

func (f *fakeCatalog) Refresh(_ context.Context, uri string) error {
	f.lastURI = uri
	return f.err
}

func (f *fakeCatalog) TranslateURI(_ context.Context, uri string) (string, error) {
	f.lastURI = uri
	return f.url, f.err
}

type fakeServers []dleyna.Server

func (f fakeServers) List() []dleyna.Server { return append([]dleyna.Server(nil), f...) }

func newTestServer(cat *fakeCatalog, servers fakeServers) *Server {
	return New(Config{}, cat, servers, health.NewManager("test"))
}

func do(t *testing.T, s *Server, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestBrowse_DefaultsToRoot(t *testing.T) {
	cat := &fakeCatalog{refs: []models.Ref{{Type: models.RefDirectory, URI: "dleyna://u1", Name: "Media"}}}
	w := do(t, newTestServer(cat, nil), http.MethodGet, "/api/browse", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, catalog.RootURI, cat.lastURI)

	var resp BrowseResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, cat.refs, resp.Refs)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))
}

func TestBrowse_EmptyIsArray(t *testing.T) {
	w := do(t, newTestServer(&fakeCatalog{}, nil), http.MethodGet, "/api/browse?uri="+url.QueryEscape("dleyna://u1"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refs":[]`)
}

func TestLookup_RequiresURI(t *testing.T) {
	w := do(t, newTestServer(&fakeCatalog{}, nil), http.MethodGet, "/api/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLookup_ReturnsTracks(t *testing.T) {
	cat := &fakeCatalog{tracks: []models.Track{{URI: "dleyna://u1/a", Name: "Song", Length: 1000}}}
	w := do(t, newTestServer(cat, nil), http.MethodGet, "/api/lookup?uri="+url.QueryEscape("dleyna://u1/a"), nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "dleyna://u1/a", cat.lastURI)
	var tracks []models.Track
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tracks))
	assert.Equal(t, cat.tracks, tracks)
}

func TestSearch_DecodesRequest(t *testing.T) {
	cat := &fakeCatalog{result: models.SearchResult{URI: "dleyna:?artist=Low"}}
	body, _ := json.Marshal(SearchRequest{
		Query: query.Query{"artist": {"Low"}},
		URIs:  []string{"dleyna://u1"},
		Exact: true,
	})
	w := do(t, newTestServer(cat, nil), http.MethodPost, "/api/search", body)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, query.Query{"artist": {"Low"}}, cat.lastQ)
	assert.Equal(t, []string{"dleyna://u1"}, cat.lastIn)
	assert.True(t, cat.exact)
}

func TestSearch_RejectsMalformedBody(t *testing.T) {
	w := do(t, newTestServer(&fakeCatalog{}, nil), http.MethodPost, "/api/search", []byte(`{"query":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, newTestServer(&fakeCatalog{}, nil), http.MethodPost, "/api/search", []byte(`{"limit":3}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImages_RepeatedURIs(t *testing.T) {
	cat := &fakeCatalog{images: map[string][]models.Image{"a": {{URI: "http://x/a.jpg"}}, "b": {}}}
	w := do(t, newTestServer(cat, nil), http.MethodGet, "/api/images?uri=a&uri=b", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a", "b"}, cat.lastIn)

	w = do(t, newTestServer(cat, nil), http.MethodGet, "/api/images", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlayback(t *testing.T) {
	cat := &fakeCatalog{url: "http://server/stream.mp3"}
	w := do(t, newTestServer(cat, nil), http.MethodGet, "/api/playback?uri=dleyna%3A%2F%2Fu1%2Fa", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var resp PlaybackResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, PlaybackResponse{URI: "dleyna://u1/a", URL: "http://server/stream.mp3"}, resp)
}

func TestRefresh(t *testing.T) {
	cat := &fakeCatalog{}
	w := do(t, newTestServer(cat, nil), http.MethodPost, "/api/refresh", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, newTestServer(cat, nil), http.MethodGet, "/api/refresh", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServers_SortedByName(t *testing.T) {
	servers := fakeServers{
		{UDN: "uuid:b", FriendlyName: "Zeta", Path: "/com/intel/dLeynaServer/server/1"},
		{UDN: "uuid:a", FriendlyName: "Alpha", Path: "/com/intel/dLeynaServer/server/0", SearchCaps: []string{"*"}},
	}
	w := do(t, newTestServer(&fakeCatalog{}, servers), http.MethodGet, "/api/servers", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var got []ServerInfo
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "Alpha", got[0].Name)
	assert.Equal(t, translator.ServerURI(servers[1]), got[0].URI)
	assert.Equal(t, []string{}, got[1].SearchCaps)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		kind string
	}{
		{"invalid uri", fmt.Errorf("%w: x", translator.ErrInvalidURI), http.StatusBadRequest, "invalid_uri"},
		{"unsupported field", &query.UnsupportedFieldError{Field: "uri", Reason: query.ReasonUnknown}, http.StatusBadRequest, "unsupported_field"},
		{"unknown server", fmt.Errorf("%w: uuid:x", registry.ErrUnknownService), http.StatusNotFound, "unknown_server"},
		{"no resource", catalog.ErrNoResource, http.StatusNotFound, "no_resource"},
		{"breaker open", resilience.ErrCircuitOpen, http.StatusServiceUnavailable, "bus_unavailable"},
		{"timeout", &bus.TransportError{Method: "m", Object: "o", Err: future.ErrTimeout}, http.StatusGatewayTimeout, "timeout"},
		{"transport", &bus.TransportError{Method: "m", Object: "o", Err: errors.New("no reply")}, http.StatusBadGateway, "bus_error"},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newTestServer(&fakeCatalog{err: tt.err}, nil), http.MethodGet, "/api/browse?uri=x", nil)
			assert.Equal(t, tt.code, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Equal(t, tt.kind, resp.Error)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestServerErrorsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	xglog.Configure(xglog.Config{Level: "info", Output: &buf})
	t.Cleanup(func() { xglog.Configure(xglog.Config{Level: "info"}) })

	w := do(t, newTestServer(&fakeCatalog{err: errors.New("boom")}, nil), http.MethodGet, "/api/browse?uri=x", nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var entry map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var e map[string]any
		if json.Unmarshal(line, &e) == nil && e[xglog.FieldEvent] == "api.error" {
			entry = e
		}
	}
	require.NotNil(t, entry, "no api.error line in %s", buf.String())
	assert.Equal(t, "api", entry[xglog.FieldComponent])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "/api/browse", entry[xglog.FieldPath])
	assert.EqualValues(t, http.StatusInternalServerError, entry["status"])

	buf.Reset()
	w = do(t, newTestServer(&fakeCatalog{err: catalog.ErrNoResource}, nil), http.MethodGet, "/api/browse?uri=x", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.NotContains(t, buf.String(), "api.error")
}

func TestProbesAndMetrics(t *testing.T) {
	s := newTestServer(&fakeCatalog{}, nil)

	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/readyz", nil).Code)

	do(t, s, http.MethodGet, "/api/browse", nil)
	w := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dlcat_http_request_duration_seconds")
}
