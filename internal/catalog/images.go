// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/future"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/metrics"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/telemetry"
	"github.com/ManuGH/dlcat/internal/translator"
)

// imageGroup is the set of requested objects owned by one server.
type imageGroup struct {
	srv    dleyna.Server
	paths  []string
	byPath map[string][]string // native path -> requested URIs
}

// GetImages returns the cover art for each of uris. Every requested URI is
// present in the result, with an empty list when no art was found. Servers
// that advertise Path as searchable are queried in batches; others get one
// property fetch per object.
func (l *Library) GetImages(ctx context.Context, uris []string) (out map[string][]models.Image, err error) {
	ctx, span, logger := l.span(ctx, "images", "", attribute.Int(telemetry.CatalogURICountKey, len(uris)))
	defer func() { finish(span, "images", err) }()

	out = make(map[string][]models.Image, len(uris))
	var mu sync.Mutex
	set := func(uri string, images []models.Image) {
		mu.Lock()
		out[uri] = images
		mu.Unlock()
	}

	var order []string
	groups := make(map[string]*imageGroup)
	for _, uri := range uris {
		if _, done := out[uri]; done {
			continue
		}
		out[uri] = []models.Image{}
		if cached, ok := l.images.Get(uri); ok {
			out[uri] = cached
			continue
		}
		srv, _, path, err := l.resolve(uri)
		if err != nil {
			metrics.IncCatalogSkipped("images", "resolve")
			logger.Warn().Err(err).Str(xglog.FieldURI, uri).Msg("no images for uri")
			continue
		}
		g, ok := groups[srv.UDN]
		if !ok {
			g = &imageGroup{srv: srv, byPath: make(map[string][]string)}
			groups[srv.UDN] = g
			order = append(order, srv.UDN)
		}
		if _, dup := g.byPath[path]; !dup {
			g.paths = append(g.paths, path)
		}
		g.byPath[path] = append(g.byPath[path], uri)
	}

	eg, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		eg.SetLimit(l.concurrency)
	}
	for _, udn := range order {
		g := groups[udn]
		eg.Go(func() error {
			l.serverImages(gctx, g, logger, func(path string, images []models.Image) {
				uris, ok := g.byPath[path]
				if !ok {
					logger.Warn().Str(xglog.FieldPath, path).Msg("unexpected result path")
					return
				}
				if images == nil {
					images = []models.Image{}
				}
				for _, uri := range uris {
					set(uri, images)
					l.images.Set(uri, images, l.imageTTL)
				}
			})
			return ctx.Err()
		})
	}
	if err := eg.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

// serverImages resolves the images of one server's objects and reports each
// object found through found. All calls are issued before any is awaited.
func (l *Library) serverImages(ctx context.Context, g *imageGroup, logger zerolog.Logger, found func(path string, images []models.Image)) {
	if g.srv.CanSearch("Path") {
		var futures []*future.Future[dleyna.SearchResult]
		for n := 0; n < len(g.paths); n += imageChunkSize {
			chunk := g.paths[n:min(n+imageChunkSize, len(g.paths))]
			futures = append(futures, l.client.SearchObjects(g.srv.Path, query.PathIn(chunk), 0, 0, ImagesFilter, ""))
		}
		for _, f := range futures {
			res, err := f.Wait(ctx)
			if err != nil {
				metrics.IncCatalogSkipped("images", "error")
				logger.Error().Err(err).Str(xglog.FieldUDN, g.srv.UDN).Msg("image search failed")
				continue
			}
			for _, obj := range res.Objects {
				found(obj.Path, translator.Images(obj))
			}
		}
		return
	}

	futures := make([]*future.Future[dleyna.Object], len(g.paths))
	for i, path := range g.paths {
		futures[i] = l.client.Object(path)
	}
	for i, f := range futures {
		obj, err := f.Wait(ctx)
		if err != nil {
			metrics.IncCatalogSkipped("images", "error")
			logger.Error().Err(err).Str(xglog.FieldPath, g.paths[i]).Msg("image lookup failed")
			continue
		}
		found(g.paths[i], translator.Images(obj))
	}
}
