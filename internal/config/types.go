// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config provides configuration management for dlcat.
//
// Configuration is resolved with the precedence ENV > file > defaults.
// The file is YAML and parsed strictly; environment variables use the
// DLCAT_ prefix.
package config

import "time"

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	LogLevel   string
	LogService string

	Bus       BusConfig
	Limits    LimitsConfig
	Images    ImagesConfig
	API       APIConfig
	Telemetry TelemetryConfig
}

// BusConfig controls the message bus connection and the call gateway.
type BusConfig struct {
	// Address is a D-Bus address. Empty means the session bus.
	Address          string
	CallTimeout      time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}

// LimitsConfig holds the page sizes used by the catalog.
type LimitsConfig struct {
	Browse int
	Lookup int
	Search int
}

// ImagesConfig controls image URL memoization.
type ImagesConfig struct {
	// CacheTTL of zero disables the image cache.
	CacheTTL time.Duration
}

// APIConfig configures the HTTP surface.
type APIConfig struct {
	ListenAddr string
	// RateLimit is the per-client request budget per minute. Zero disables limiting.
	RateLimit int
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Environment  string
	ExporterType string
	Endpoint     string
	SamplingRate float64
}

// FileConfig is the on-disk YAML representation. Pointer fields distinguish
// "unset" from the zero value so that defaults survive partial files.
type FileConfig struct {
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	Bus       BusFileConfig       `yaml:"bus,omitempty"`
	Limits    LimitsFileConfig    `yaml:"limits,omitempty"`
	Images    ImagesFileConfig    `yaml:"images,omitempty"`
	API       APIFileConfig       `yaml:"api,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

// BusFileConfig is the YAML form of BusConfig.
type BusFileConfig struct {
	Address          string `yaml:"address,omitempty"`
	CallTimeout      string `yaml:"callTimeout,omitempty"`
	BreakerThreshold *int   `yaml:"breakerThreshold,omitempty"`
	BreakerReset     string `yaml:"breakerReset,omitempty"`
}

// LimitsFileConfig is the YAML form of LimitsConfig.
type LimitsFileConfig struct {
	Browse *int `yaml:"browse,omitempty"`
	Lookup *int `yaml:"lookup,omitempty"`
	Search *int `yaml:"search,omitempty"`
}

// ImagesFileConfig is the YAML form of ImagesConfig.
type ImagesFileConfig struct {
	CacheTTL string `yaml:"cacheTTL,omitempty"`
}

// APIFileConfig is the YAML form of APIConfig.
type APIFileConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
	RateLimit  *int   `yaml:"rateLimit,omitempty"`
}

// TelemetryFileConfig is the YAML form of TelemetryConfig.
type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Environment  string   `yaml:"environment,omitempty"`
	ExporterType string   `yaml:"exporterType,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
