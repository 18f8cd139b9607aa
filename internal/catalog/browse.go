// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/paging"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/telemetry"
	"github.com/ManuGH/dlcat/internal/translator"
)

// Sort orders per container kind.
var (
	albumSort   = []string{"+TrackNumber", "+DisplayName"}
	defaultSort = []string{"+TypeEx", "+DisplayName"}
)

// Browse lists the children of uri. The root lists the registered servers
// by name. A filter URI for a synthesized album or artist lists the
// matching tracks below its scope container. Children that have no catalog
// representation are skipped.
func (l *Library) Browse(ctx context.Context, uri string) (refs []models.Ref, err error) {
	ctx, span, logger := l.span(ctx, "browse", uri)
	defer func() { finish(span, "browse", err) }()

	if translator.IsRoot(uri) {
		servers := l.sortedServers()
		refs = make([]models.Ref, 0, len(servers))
		for _, srv := range servers {
			refs = append(refs, translator.ServerRef(srv))
		}
		return refs, nil
	}

	srv, u, path, err := l.resolve(uri)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(telemetry.ServerAttributes(srv.UDN, path)...)
	tr := translator.New(srv)

	filter, err := u.Filter()
	if err != nil {
		return nil, err
	}
	if filter != "" {
		expr := query.And(filter, query.PlayableFilter)
		logger.Debug().Str(xglog.FieldPath, path).Str(xglog.FieldQuery, expr).Msg("browsing filter")
		it := paging.New(l.searchPages(path, expr, BrowseFilter), l.Limits().Browse, tr.Ref,
			paging.WithContext(ctx),
			paging.WithOperation("browse"),
			paging.WithLogger(logger),
		)
		return collectRefs(it, uri, logger)
	}

	obj, err := l.client.Object(path).Wait(ctx)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldURI, uri).Msg("failed to fetch container")
		return nil, err
	}
	order := sortOrder(srv, obj.Kind())
	logger.Debug().Str(xglog.FieldPath, path).Str("sort", order).Msg("browsing")

	fetch := func(offset, limit int) *future.Future[paging.Page[dleyna.Object]] {
		f := l.client.ListChildren(path, offset, limit, BrowseFilter, order)
		return future.Then(f, func(ls dleyna.Listing) paging.Page[dleyna.Object] {
			return paging.Page[dleyna.Object]{Items: ls.Objects, Returned: ls.Returned}
		})
	}
	it := paging.New(fetch, l.Limits().Browse, tr.Ref,
		paging.WithContext(ctx),
		paging.WithOperation("browse"),
		paging.WithLogger(logger),
	)
	return collectRefs(it, uri, logger)
}

func collectRefs(it *paging.Iterator[dleyna.Object, models.Ref], uri string, logger zerolog.Logger) ([]models.Ref, error) {
	refs, err := it.Collect()
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldURI, uri).Int(xglog.FieldCount, len(refs)).Msg("browse aborted")
		return nil, err
	}
	if refs == nil {
		refs = []models.Ref{}
	}
	return refs, nil
}

// sortOrder picks the child ordering for a container of kind, keeping only
// the keys the server can sort by.
func sortOrder(srv dleyna.Server, kind string) string {
	keys := defaultSort
	if kind == dleyna.TypeAlbum {
		keys = albumSort
	}
	supported := make([]string, 0, len(keys))
	for _, k := range keys {
		if srv.CanSort(k[1:]) {
			supported = append(supported, k)
		}
	}
	return strings.Join(supported, ",")
}
