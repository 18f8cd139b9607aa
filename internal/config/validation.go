// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string
	Message string
	Value   any
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// Validate checks a resolved configuration. All problems are reported at once,
// joined and wrapped in ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(field, msg string, v any) {
		errs = append(errs, FieldError{Field: field, Message: msg, Value: v})
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel)); err != nil {
		add("logLevel", "unknown log level", cfg.LogLevel)
	}

	if cfg.Bus.CallTimeout <= 0 {
		add("bus.callTimeout", "must be positive", cfg.Bus.CallTimeout)
	}
	if cfg.Bus.BreakerThreshold < 0 {
		add("bus.breakerThreshold", "must not be negative", cfg.Bus.BreakerThreshold)
	}
	if cfg.Bus.BreakerThreshold > 0 && cfg.Bus.BreakerReset <= 0 {
		add("bus.breakerReset", "must be positive when the breaker is enabled", cfg.Bus.BreakerReset)
	}

	checkLimit := func(field string, v int) {
		if v < 0 {
			add(field, "must not be negative", v)
		}
	}
	checkLimit("limits.browse", cfg.Limits.Browse)
	checkLimit("limits.lookup", cfg.Limits.Lookup)
	checkLimit("limits.search", cfg.Limits.Search)

	if cfg.Images.CacheTTL < 0 {
		add("images.cacheTTL", "must not be negative", cfg.Images.CacheTTL)
	}

	if cfg.API.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.API.ListenAddr); err != nil {
			add("api.listenAddr", "must be host:port", cfg.API.ListenAddr)
		}
	}
	if cfg.API.RateLimit < 0 {
		add("api.rateLimit", "must not be negative", cfg.API.RateLimit)
	}

	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.ExporterType {
		case "grpc", "http":
		default:
			add("telemetry.exporterType", "must be grpc or http", cfg.Telemetry.ExporterType)
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			add("telemetry.samplingRate", "must be within [0,1]", cfg.Telemetry.SamplingRate)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
