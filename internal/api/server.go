// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package api exposes the catalog over HTTP/JSON.
package api

import (
	"context"
	"net/http"

	"github.com/ManuGH/dlcat/internal/api/middleware"
	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/health"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/query"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog is the set of catalog operations served over HTTP.
type Catalog interface {
	Browse(ctx context.Context, uri string) ([]models.Ref, error)
	Lookup(ctx context.Context, uri string) ([]models.Track, error)
	Search(ctx context.Context, q query.Query, uris []string, exact bool) (models.SearchResult, error)
	GetImages(ctx context.Context, uris []string) (map[string][]models.Image, error)
	Refresh(ctx context.Context, uri string) error
	TranslateURI(ctx context.Context, uri string) (string, error)
}

// ServerLister lists the registered media servers.
type ServerLister interface {
	List() []dleyna.Server
}

// Config configures the HTTP server.
type Config struct {
	// ServiceName names the tracing instrumentation. Empty disables tracing.
	ServiceName string
	// RateLimit is requests per minute per client IP. Zero disables limiting.
	RateLimit int
}

// Server routes HTTP requests to the catalog.
type Server struct {
	cfg     Config
	catalog Catalog
	servers ServerLister
	health  *health.Manager
	router  chi.Router
}

// New builds the server and its routes. hm may be nil.
func New(cfg Config, cat Catalog, servers ServerLister, hm *health.Manager) *Server {
	s := &Server{
		cfg:     cfg,
		catalog: cat,
		servers: servers,
		health:  hm,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	// Probes and scrape sit outside the rate limit.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Recoverer)
		if s.health != nil {
			r.Get("/healthz", s.health.ServeHealth)
			r.Get("/readyz", s.health.ServeReady)
		}
		r.Handle("/metrics", promhttp.Handler())
	})

	r.Route("/api", func(r chi.Router) {
		middleware.ApplyStack(r, middleware.StackConfig{
			EnableMetrics:  true,
			TracingService: s.cfg.ServiceName,
			EnableLogging:  true,
			RateLimit:      s.cfg.RateLimit,
		})

		r.Get("/servers", s.handleServers)
		r.Get("/browse", s.handleBrowse)
		r.Get("/lookup", s.handleLookup)
		r.Post("/search", s.handleSearch)
		r.Get("/images", s.handleImages)
		r.Get("/playback", s.handlePlayback)
		r.With(middleware.RefreshRateLimit()).Post("/refresh", s.handleRefresh)
	})

	return r
}
