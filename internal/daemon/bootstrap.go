// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/dlcat/internal/api"
	"github.com/ManuGH/dlcat/internal/bus"
	"github.com/ManuGH/dlcat/internal/bus/dbusconn"
	"github.com/ManuGH/dlcat/internal/cache"
	"github.com/ManuGH/dlcat/internal/catalog"
	"github.com/ManuGH/dlcat/internal/config"
	"github.com/ManuGH/dlcat/internal/dleyna"
	"github.com/ManuGH/dlcat/internal/health"
	xglog "github.com/ManuGH/dlcat/internal/log"
	"github.com/ManuGH/dlcat/internal/models"
	"github.com/ManuGH/dlcat/internal/registry"
	"github.com/ManuGH/dlcat/internal/resilience"
	"github.com/ManuGH/dlcat/internal/telemetry"
)

// Options tune Bootstrap.
type Options struct {
	Version string
	// Transport replaces the D-Bus connection, e.g. with bustest in tests.
	Transport bus.Transport
}

// Bootstrap wires the bus connection, the dLeyna client, the server
// registry, the catalog and the HTTP surface into an App. Every resource it
// opens is released by a shutdown hook on the App's manager.
func Bootstrap(ctx context.Context, cfg config.AppConfig, holder *config.ConfigHolder, opts Options) (_ *App, err error) {
	logger := xglog.WithComponent("daemon")

	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: opts.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.ExporterType,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
		BusAddress:     cfg.Bus.Address,
		Destination:    dleyna.BusName,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	cleanup = append(cleanup, func() { _ = tp.Shutdown(context.Background()) })

	transport := opts.Transport
	if transport == nil {
		conn, err := dbusconn.Dial(dbusconn.Config{
			Address:     cfg.Bus.Address,
			Destination: dleyna.BusName,
			CallTimeout: cfg.Bus.CallTimeout,
		})
		if err != nil {
			return nil, err
		}
		transport = conn
		cleanup = append(cleanup, func() { _ = conn.Close() })
	}

	var (
		gwOpts  []bus.GatewayOption
		breaker *resilience.CircuitBreaker
	)
	if cfg.Bus.BreakerThreshold > 0 {
		breaker = resilience.NewCircuitBreaker("dleyna", cfg.Bus.BreakerThreshold, cfg.Bus.BreakerReset)
		gwOpts = append(gwOpts, bus.WithBreaker(breaker))
	}
	client := dleyna.NewClient(bus.NewGateway(transport, gwOpts...))

	reg := registry.New(client)
	if err := reg.Start(); err != nil {
		return nil, fmt.Errorf("start registry: %w", err)
	}
	cleanup = append(cleanup, func() { _ = reg.Close() })

	libOpts := []catalog.Option{catalog.WithLimits(LimitsFromConfig(cfg))}
	var images cache.Cache[[]models.Image]
	if cfg.Images.CacheTTL > 0 {
		images = cache.NewMemory[[]models.Image](cfg.Images.CacheTTL)
		libOpts = append(libOpts, catalog.WithImageCache(images, cfg.Images.CacheTTL))
		cleanup = append(cleanup, images.Close)
	}
	lib := catalog.New(reg, client, libOpts...)

	hm := health.NewManager(opts.Version)
	hm.RegisterChecker(health.NewRegistryChecker(reg))
	hm.RegisterChecker(health.NewBusChecker(func(ctx context.Context) (string, error) {
		return client.Version().Wait(ctx)
	}, 2*time.Second))
	if breaker != nil {
		hm.RegisterChecker(health.NewBreakerChecker("bus_breaker", breaker))
	}

	apiCfg := api.Config{RateLimit: cfg.API.RateLimit}
	if cfg.Telemetry.Enabled {
		apiCfg.ServiceName = cfg.LogService
	}
	apiSrv := api.New(apiCfg, lib, reg, hm)

	mgr, err := NewManager(DefaultServerConfig(cfg.API.ListenAddr), Deps{
		Logger:     logger,
		APIHandler: apiSrv.Handler(),
	})
	if err != nil {
		return nil, err
	}

	// Registered in dependency order; hooks run in reverse.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	if c, ok := transport.(io.Closer); ok && opts.Transport == nil {
		mgr.RegisterShutdownHook("bus", func(context.Context) error { return c.Close() })
	}
	mgr.RegisterShutdownHook("registry", func(context.Context) error { return reg.Close() })
	if images != nil {
		mgr.RegisterShutdownHook("image_cache", func(context.Context) error {
			images.Close()
			return nil
		})
	}

	app := NewApp(logger, mgr, holder, lib)
	app.OnReload(applyLogLevel)

	logger.Info().
		Str(xglog.FieldEvent, "daemon.bootstrapped").
		Str("listen", cfg.API.ListenAddr).
		Bool("breaker", breaker != nil).
		Dur("image_cache_ttl", cfg.Images.CacheTTL).
		Msg("catalog daemon wired")
	return app, nil
}

func applyLogLevel(cfg config.AppConfig) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		zerolog.SetGlobalLevel(lvl)
	}
}
