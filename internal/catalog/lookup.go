// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package catalog

import (
	"context"
	"errors"

	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/paging"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/ManuGH/dlcat/internal/telemetry"
	"github.com/ManuGH/dlcat/internal/translator"
)

// ErrNoResource is returned when an item has no playable URL.
var ErrNoResource = errors.New("item has no resource url")

// Lookup returns the tracks addressed by uri: the item itself, or every
// playable item below a container. Filter URIs for synthesized albums and
// artists select the matching items below their scope container. Objects of
// other kinds yield an empty result.
func (l *Library) Lookup(ctx context.Context, uri string) (tracks []models.Track, err error) {
	ctx, span, logger := l.span(ctx, "lookup", uri)
	defer func() { finish(span, "lookup", err) }()

	if translator.IsRoot(uri) {
		return []models.Track{}, nil
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
	if filter == "" {
		obj, err := l.client.Object(path).Wait(ctx)
		if err != nil {
			logger.Error().Err(err).Str(xglog.FieldURI, uri).Msg("failed to fetch object")
			return nil, err
		}
		switch {
		case obj.IsPlayable():
			track, err := tr.Track(obj)
			if err != nil {
				return nil, err
			}
			return []models.Track{track}, nil
		case !obj.IsContainer():
			logger.Error().Str(xglog.FieldURI, uri).Str(xglog.FieldType, obj.Kind()).Msg("invalid object type for lookup")
			return []models.Track{}, nil
		}
	}

	expr := query.And(filter, query.PlayableFilter)
	it := paging.New(l.searchPages(path, expr, SearchFilter), l.Limits().Lookup, tr.Track,
		paging.WithContext(ctx),
		paging.WithOperation("lookup"),
		paging.WithLogger(logger),
	)
	tracks, err = it.Collect()
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldURI, uri).Msg("lookup search failed")
		return nil, err
	}
	if tracks == nil {
		tracks = []models.Track{}
	}
	return tracks, nil
}

// Refresh asks the dLeyna manager to rescan the network. The uri is
// accepted for symmetry with the other operations; rescans are global.
func (l *Library) Refresh(ctx context.Context, uri string) (err error) {
	ctx, span, logger := l.span(ctx, "refresh", uri)
	defer func() { finish(span, "refresh", err) }()

	logger.Info().Msg("refreshing media servers")
	if _, err = l.client.Rescan().Wait(ctx); err != nil {
		logger.Error().Err(err).Msg("rescan failed")
	}
	return err
}

// TranslateURI returns the first resource URL of the item at uri, for
// handing to a player.
func (l *Library) TranslateURI(ctx context.Context, uri string) (url string, err error) {
	ctx, span, logger := l.span(ctx, "translate", uri)
	defer func() { finish(span, "translate", err) }()

	_, _, path, err := l.resolve(uri)
	if err != nil {
		return "", err
	}
	urls, err := l.client.ItemURLs(path).Wait(ctx)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldURI, uri).Msg("failed to fetch item urls")
		return "", err
	}
	if len(urls) == 0 {
		return "", ErrNoResource
	}
	return urls[0], nil
}
