// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values.
const (
	DefaultLogService       = "dlcat"
	DefaultCallTimeout      = 30 * time.Second
	DefaultBreakerThreshold = 5
	DefaultBreakerReset     = 30 * time.Second
	DefaultBrowseLimit      = 1000
	DefaultLookupLimit      = 50
	DefaultSearchLimit      = 100
	DefaultImageCacheTTL    = 10 * time.Minute
	DefaultListenAddr       = "127.0.0.1:8585"
	DefaultRateLimit        = 600
)

// Defaults returns the configuration used when neither file nor environment
// set a value.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: DefaultLogService,
		Bus: BusConfig{
			CallTimeout:      DefaultCallTimeout,
			BreakerThreshold: DefaultBreakerThreshold,
			BreakerReset:     DefaultBreakerReset,
		},
		Limits: LimitsConfig{
			Browse: DefaultBrowseLimit,
			Lookup: DefaultLookupLimit,
			Search: DefaultSearchLimit,
		},
		Images: ImagesConfig{CacheTTL: DefaultImageCacheTTL},
		API: APIConfig{
			ListenAddr: DefaultListenAddr,
			RateLimit:  DefaultRateLimit,
		},
		Telemetry: TelemetryConfig{
			Environment:  "production",
			ExporterType: "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
	}
}

// Loader handles configuration loading with precedence.
type Loader struct {
	configPath      string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader. An empty path means environment-only configuration.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath:      configPath,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the config file path, which may be empty.
func (l *Loader) Path() string { return l.configPath }

// Load loads configuration with precedence ENV > File > Defaults and validates
// the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		if err := mergeFileConfig(&cfg, fileCfg); err != nil {
			return cfg, fmt.Errorf("merge file config: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFileConfig loads a YAML config file without applying defaults or env overrides.
func LoadFileConfig(path string) (*FileConfig, error) {
	return NewLoader(path).loadFile(path)
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) error {
	if f.LogLevel != "" {
		cfg.LogLevel = f.LogLevel
	}
	if f.LogService != "" {
		cfg.LogService = f.LogService
	}

	if f.Bus.Address != "" {
		cfg.Bus.Address = f.Bus.Address
	}
	if err := mergeDuration(&cfg.Bus.CallTimeout, "bus.callTimeout", f.Bus.CallTimeout); err != nil {
		return err
	}
	mergePtr(&cfg.Bus.BreakerThreshold, f.Bus.BreakerThreshold)
	if err := mergeDuration(&cfg.Bus.BreakerReset, "bus.breakerReset", f.Bus.BreakerReset); err != nil {
		return err
	}

	mergePtr(&cfg.Limits.Browse, f.Limits.Browse)
	mergePtr(&cfg.Limits.Lookup, f.Limits.Lookup)
	mergePtr(&cfg.Limits.Search, f.Limits.Search)

	if err := mergeDuration(&cfg.Images.CacheTTL, "images.cacheTTL", f.Images.CacheTTL); err != nil {
		return err
	}

	if f.API.ListenAddr != "" {
		cfg.API.ListenAddr = f.API.ListenAddr
	}
	mergePtr(&cfg.API.RateLimit, f.API.RateLimit)

	mergePtr(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
	if f.Telemetry.Environment != "" {
		cfg.Telemetry.Environment = f.Telemetry.Environment
	}
	if f.Telemetry.ExporterType != "" {
		cfg.Telemetry.ExporterType = f.Telemetry.ExporterType
	}
	if f.Telemetry.Endpoint != "" {
		cfg.Telemetry.Endpoint = f.Telemetry.Endpoint
	}
	mergePtr(&cfg.Telemetry.SamplingRate, f.Telemetry.SamplingRate)
	return nil
}

func mergePtr[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func mergeDuration(dst *time.Duration, field, raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
	cfg.LogService = l.envString(EnvLogService, cfg.LogService)

	cfg.Bus.Address = l.envString(EnvBusAddress, cfg.Bus.Address)
	cfg.Bus.CallTimeout = l.envDuration(EnvBusCallTimeout, cfg.Bus.CallTimeout)
	cfg.Bus.BreakerThreshold = l.envInt(EnvBreakerThreshold, cfg.Bus.BreakerThreshold)
	cfg.Bus.BreakerReset = l.envDuration(EnvBreakerReset, cfg.Bus.BreakerReset)

	cfg.Limits.Browse = l.envInt(EnvLimitBrowse, cfg.Limits.Browse)
	cfg.Limits.Lookup = l.envInt(EnvLimitLookup, cfg.Limits.Lookup)
	cfg.Limits.Search = l.envInt(EnvLimitSearch, cfg.Limits.Search)

	cfg.Images.CacheTTL = l.envDuration(EnvImageCacheTTL, cfg.Images.CacheTTL)

	cfg.API.ListenAddr = l.envString(EnvListenAddr, cfg.API.ListenAddr)
	cfg.API.RateLimit = l.envInt(EnvRateLimit, cfg.API.RateLimit)

	cfg.Telemetry.Enabled = l.envBool(EnvTelemetryEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Environment = l.envString(EnvTelemetryEnv, cfg.Telemetry.Environment)
	cfg.Telemetry.ExporterType = l.envString(EnvTelemetryExporter, cfg.Telemetry.ExporterType)
	cfg.Telemetry.Endpoint = l.envString(EnvTelemetryEndpoint, cfg.Telemetry.Endpoint)
	cfg.Telemetry.SamplingRate = l.envFloat(EnvTelemetrySampling, cfg.Telemetry.SamplingRate)
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}
