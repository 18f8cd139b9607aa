// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ManuGH/dlcat/internal/log"
	"github.com/rs/zerolog"
)

// Environment variable names. All of them override file values.
const (
	EnvLogLevel          = "DLCAT_LOG_LEVEL"
	EnvLogService        = "DLCAT_LOG_SERVICE"
	EnvBusAddress        = "DLCAT_BUS_ADDRESS"
	EnvBusCallTimeout    = "DLCAT_BUS_CALL_TIMEOUT"
	EnvBreakerThreshold  = "DLCAT_BUS_BREAKER_THRESHOLD"
	EnvBreakerReset      = "DLCAT_BUS_BREAKER_RESET"
	EnvLimitBrowse       = "DLCAT_LIMIT_BROWSE"
	EnvLimitLookup       = "DLCAT_LIMIT_LOOKUP"
	EnvLimitSearch       = "DLCAT_LIMIT_SEARCH"
	EnvImageCacheTTL     = "DLCAT_IMAGE_CACHE_TTL"
	EnvListenAddr        = "DLCAT_LISTEN_ADDR"
	EnvRateLimit         = "DLCAT_RATE_LIMIT"
	EnvTelemetryEnabled  = "DLCAT_TELEMETRY_ENABLED"
	EnvTelemetryEnv      = "DLCAT_TELEMETRY_ENVIRONMENT"
	EnvTelemetryExporter = "DLCAT_TELEMETRY_EXPORTER"
	EnvTelemetryEndpoint = "DLCAT_TELEMETRY_ENDPOINT"
	EnvTelemetrySampling = "DLCAT_TELEMETRY_SAMPLING_RATE"
)

// lookupEnv returns the trimmed value of key and whether it carries a value.
// Empty variables count as unset.
func lookupEnv(logger zerolog.Logger, key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		logger.Debug().Str("key", key).Str("source", "default").
			Msg("environment variable is empty, ignoring")
		return "", false
	}
	return v, true
}

// parseEnv applies parse to the variable named key. On a parse failure the
// default is kept and a warning is logged.
func parseEnv[T any](key string, def T, parse func(string) (T, error)) T {
	logger := log.WithComponent("config")
	raw, ok := lookupEnv(logger, key)
	if !ok {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		logger.Warn().
			Str("key", key).
			Str("value", raw).
			Interface("default", def).
			Msg("invalid value in environment variable, using default")
		return def
	}
	logger.Debug().
		Str("key", key).
		Interface("value", v).
		Str("source", "environment").
		Msg("using environment variable")
	return v
}

// ParseString reads an environment variable or returns the default.
func ParseString(key, defaultValue string) string {
	return parseEnv(key, defaultValue, func(s string) (string, error) { return s, nil })
}

// ParseInt reads an integer from the environment or returns the default.
func ParseInt(key string, defaultValue int) int {
	return parseEnv(key, defaultValue, strconv.Atoi)
}

// ParseDuration reads a Go duration (e.g. "5s") from the environment.
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(key, defaultValue, time.ParseDuration)
}

// ParseFloat reads a float64 from the environment or returns the default.
func ParseFloat(key string, defaultValue float64) float64 {
	return parseEnv(key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool reads a boolean from the environment. It accepts "true", "false",
// "1", "0", "yes" and "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	return parseEnv(key, defaultValue, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}
