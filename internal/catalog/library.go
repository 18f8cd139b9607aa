// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package catalog exposes the content of the registered media servers as a
// browsable and searchable catalog addressed by dleyna URIs.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/dlcat/internal/cache"
	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/metrics"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/paging"
	"github.com/ManuGH/dlcat/internal/telemetry"
	"github.com/ManuGH/dlcat/internal/translator"
)

// RootURI addresses the list of media servers.
const RootURI = translator.RootURI

// RootName is the display name of the root directory.
const RootName = "Digital Media Servers"

// Property filters requested per operation.
var (
	BrowseFilter = []string{"DisplayName", "Path", "RefPath", "Type", "TypeEx"}
	ImagesFilter = []string{"AlbumArtURL", "Path"}
	SearchFilter = []string{
		"Album", "AlbumArtURL", "Artist", "Artists", "ChildCount", "Creator",
		"Date", "DisplayName", "Duration", "Genre", "ItemCount", "Parent",
		"Path", "RefPath", "TrackNumber", "Type", "TypeEx",
	}
)

// imageChunkSize bounds the number of paths in one batched image search.
const imageChunkSize = 10

// Limits are per-operation page sizes. Zero lets the server decide and
// fetches everything in one call.
type Limits struct {
	Browse int
	Lookup int
	Search int
}

// DefaultLimits returns the page sizes used when none are configured.
func DefaultLimits() Limits {
	return Limits{Browse: 1000, Lookup: 50, Search: 100}
}

// Servers resolves UDNs to registered media servers.
type Servers interface {
	Get(udn string) (dleyna.Server, error)
	List() []dleyna.Server
}

// Client is the subset of the dLeyna client used by the library.
type Client interface {
	Object(path string) *future.Future[dleyna.Object]
	ItemURLs(path string) *future.Future[[]string]
	ListChildren(path string, offset, limit int, filter []string, sort string) *future.Future[dleyna.Listing]
	SearchObjects(path, query string, offset, limit int, filter []string, sort string) *future.Future[dleyna.SearchResult]
	Rescan() *future.Future[struct{}]
}

// Option configures a Library.
type Option func(*Library)

// WithLimits sets the initial page sizes.
func WithLimits(l Limits) Option {
	return func(lib *Library) { lib.limits.Store(&l) }
}

// WithImageCache memoizes cover-art lookups in c for ttl.
func WithImageCache(c cache.Cache[[]models.Image], ttl time.Duration) Option {
	return func(lib *Library) {
		lib.images = c
		lib.imageTTL = ttl
	}
}

// WithSearchConcurrency bounds the number of servers searched in parallel.
func WithSearchConcurrency(n int) Option {
	return func(lib *Library) { lib.concurrency = n }
}

// Library implements the catalog operations on top of the registry and
// the dLeyna client.
type Library struct {
	servers     Servers
	client      Client
	limits      atomic.Pointer[Limits]
	images      cache.Cache[[]models.Image]
	imageTTL    time.Duration
	concurrency int
	logger      zerolog.Logger
}

// New creates a library.
func New(servers Servers, client Client, opts ...Option) *Library {
	lib := &Library{
		servers:     servers,
		client:      client,
		images:      cache.NewNoOp[[]models.Image](),
		concurrency: 4,
		logger:      xglog.WithComponent("catalog"),
	}
	defaults := DefaultLimits()
	lib.limits.Store(&defaults)
	for _, opt := range opts {
		opt(lib)
	}
	return lib
}

// SetLimits replaces the page sizes for subsequent operations.
func (l *Library) SetLimits(limits Limits) {
	l.limits.Store(&limits)
	l.logger.Info().
		Int("browse", limits.Browse).
		Int("lookup", limits.Lookup).
		Int("search", limits.Search).
		Msg("page limits updated")
}

// Limits returns the current page sizes.
func (l *Library) Limits() Limits {
	return *l.limits.Load()
}

// RootRef returns the reference to the root directory.
func RootRef() models.Ref {
	return models.Ref{Type: models.RefDirectory, URI: RootURI, Name: RootName}
}

// resolve maps a non-root URI to its server and native object path.
func (l *Library) resolve(uri string) (dleyna.Server, translator.URI, string, error) {
	u, err := translator.Decompose(uri)
	if err != nil {
		return dleyna.Server{}, u, "", err
	}
	if u.IsRoot() {
		return dleyna.Server{}, u, "", fmt.Errorf("%w: %q has no server", translator.ErrInvalidURI, uri)
	}
	srv, err := l.servers.Get(u.UDN)
	if err != nil {
		return dleyna.Server{}, u, "", err
	}
	return srv, u, translator.NativePath(srv, u), nil
}

// sortedServers returns the registered servers ordered by name, then UDN.
func (l *Library) sortedServers() []dleyna.Server {
	servers := l.servers.List()
	sort.SliceStable(servers, func(i, j int) bool {
		if servers[i].FriendlyName != servers[j].FriendlyName {
			return servers[i].FriendlyName < servers[j].FriendlyName
		}
		return servers[i].UDN < servers[j].UDN
	})
	return servers
}

// searchPages binds SearchObjects to a pagination fetch. A reported total
// turns into an explicit More flag.
func (l *Library) searchPages(path, expr string, filter []string) paging.FetchFunc[dleyna.Object] {
	return func(offset, limit int) *future.Future[paging.Page[dleyna.Object]] {
		f := l.client.SearchObjects(path, expr, offset, limit, filter, "")
		return future.Then(f, func(res dleyna.SearchResult) paging.Page[dleyna.Object] {
			page := paging.Page[dleyna.Object]{Items: res.Objects, Returned: res.Returned}
			if res.Total > 0 {
				page.More = paging.More(offset+max(res.Returned, len(res.Objects)) < res.Total)
			}
			return page
		})
	}
}

func (l *Library) span(ctx context.Context, op, uri string, attrs ...attribute.KeyValue) (context.Context, trace.Span, zerolog.Logger) {
	ctx, span := telemetry.StartCatalogSpan(ctx, op, uri, attrs...)
	logger := xglog.WithContext(ctx, l.logger).With().Str(xglog.FieldOperation, op).Logger()
	return ctx, span, logger
}

func finish(span trace.Span, op string, err error) {
	metrics.RecordCatalogOp(op, err)
	telemetry.RecordError(span, err, op)
	span.End()
}
