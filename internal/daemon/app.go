// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/dlcat/internal/catalog"
	"github.com/ManuGH/dlcat/internal/config"
	"github.com/rs/zerolog"
)

// LimitSetter receives page sizes on every successful config reload.
type LimitSetter interface {
	SetLimits(catalog.Limits)
}

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	limits       LimitSetter
	onReload     []func(config.AppConfig)
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and limits may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, limits LimitSetter) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		limits:       limits,
		reloadSignal: syscall.SIGHUP,
	}
}

// OnReload registers fn to run after every successful config reload.
func (a *App) OnReload(fn func(config.AppConfig)) {
	a.onReload = append(a.onReload, fn)
}

// Manager returns the server manager.
func (a *App) Manager() Manager {
	return a.manager
}

// LimitsFromConfig converts configured page sizes to catalog limits.
func LimitsFromConfig(cfg config.AppConfig) catalog.Limits {
	return catalog.Limits{
		Browse: cfg.Limits.Browse,
		Lookup: cfg.Limits.Lookup,
		Search: cfg.Limits.Search,
	}
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best effort: the daemon runs without a watcher.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str("event", "config.watcher_start_failed").Msg("failed to start config watcher")
		}
		g.Go(func() error {
			<-ctx.Done()
			a.cfgHolder.Wait()
			return nil
		})

		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.apply(cfg)
				}
			}
		})
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str("event", "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str("event", "config.reload_failed").
							Msg("config reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	return g.Wait()
}

func (a *App) apply(cfg config.AppConfig) {
	if a.limits != nil {
		a.limits.SetLimits(LimitsFromConfig(cfg))
	}
	for _, fn := range a.onReload {
		fn(cfg)
	}
}
