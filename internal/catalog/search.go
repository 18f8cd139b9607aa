// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/dlcat/internal/dleyna"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/metrics"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/paging"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/telemetry"
	"github.com/ManuGH/dlcat/internal/translator"
)

type searchTarget struct {
	uri  string
	srv  dleyna.Server
	path string
	expr string
}

// Search runs q below each of uris (the root by default, which expands to
// every registered server) and merges the matches. Targets whose server
// cannot evaluate q, and targets that fail, are logged and left out. Results
// keep the order of uris; the first occurrence of a URI wins.
func (l *Library) Search(ctx context.Context, q query.Query, uris []string, exact bool) (res models.SearchResult, err error) {
	ctx, span, logger := l.span(ctx, "search", "", attribute.Bool(telemetry.CatalogExactKey, exact))
	defer func() { finish(span, "search", err) }()

	res = models.SearchResult{
		URI:     translator.SearchURI(url.Values(q)),
		Albums:  []models.Album{},
		Artists: []models.Artist{},
		Tracks:  []models.Track{},
	}

	targets := l.searchTargets(q, uris, exact, logger)
	span.SetAttributes(attribute.Int(telemetry.CatalogURICountKey, len(targets)))
	if len(targets) == 0 {
		return res, nil
	}

	results := make([][]models.Model, len(targets))
	limit := l.Limits().Search
	g, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}
	for i, t := range targets {
		g.Go(func() error {
			logger.Debug().Str(xglog.FieldPath, t.path).Str(xglog.FieldQuery, t.expr).Msg("searching")
			tr := translator.New(t.srv)
			it := paging.New(l.searchPages(t.path, t.expr, SearchFilter), limit, tr.Model,
				paging.WithContext(gctx),
				paging.WithOperation("search"),
				paging.WithLogger(logger),
			)
			found, err := it.Collect()
			if err != nil {
				metrics.IncCatalogSkipped("search", "error")
				logger.Error().Err(err).Str(xglog.FieldURI, t.uri).Msg("search failed, excluding server")
				return ctx.Err()
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	seen := make(map[string]struct{})
	for _, found := range results {
		for _, m := range found {
			if _, dup := seen[m.ModelURI()]; dup {
				continue
			}
			seen[m.ModelURI()] = struct{}{}
			switch v := m.(type) {
			case models.Album:
				res.Albums = append(res.Albums, v)
			case models.Artist:
				res.Artists = append(res.Artists, v)
			case models.Track:
				res.Tracks = append(res.Tracks, v)
			}
		}
	}
	span.SetAttributes(attribute.Int(telemetry.CatalogResultKey, len(seen)))
	return res, nil
}

// searchTargets expands and deduplicates uris and compiles q for each
// target's server.
func (l *Library) searchTargets(q query.Query, uris []string, exact bool, logger zerolog.Logger) []searchTarget {
	if len(uris) == 0 {
		uris = []string{RootURI}
	}
	var expanded []string
	seen := make(map[string]struct{})
	add := func(uri string) {
		if _, dup := seen[uri]; dup {
			return
		}
		seen[uri] = struct{}{}
		expanded = append(expanded, uri)
	}
	for _, uri := range uris {
		if translator.IsRoot(uri) {
			for _, srv := range l.sortedServers() {
				add(translator.ServerURI(srv))
			}
			continue
		}
		add(uri)
	}

	targets := make([]searchTarget, 0, len(expanded))
	for _, uri := range expanded {
		srv, _, path, err := l.resolve(uri)
		if err != nil {
			metrics.IncCatalogSkipped("search", "resolve")
			logger.Warn().Err(err).Str(xglog.FieldURI, uri).Msg("not searching")
			continue
		}
		expr, err := query.Compile(q, exact, query.SearchCaps(srv))
		if err != nil {
			metrics.IncCatalogSkipped("search", "unsupported")
			logger.Warn().Err(err).Str(xglog.FieldURI, uri).Msg("not searching")
			continue
		}
		targets = append(targets, searchTarget{uri: uri, srv: srv, path: path, expr: expr})
	}
	return targets
}
