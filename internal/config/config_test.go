// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := NewLoader("").Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.Equal(t, 1000, cfg.Limits.Browse)
	assert.Equal(t, 50, cfg.Limits.Lookup)
	assert.Equal(t, 100, cfg.Limits.Search)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
logLevel: debug
bus:
  address: unix:path=/run/dbus/test
  callTimeout: 5s
  breakerThreshold: 0
limits:
  browse: 200
  search: 0
images:
  cacheTTL: 1m
api:
  listenAddr: 0.0.0.0:9000
`)
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "unix:path=/run/dbus/test", cfg.Bus.Address)
	assert.Equal(t, 5*time.Second, cfg.Bus.CallTimeout)
	assert.Equal(t, 0, cfg.Bus.BreakerThreshold, "explicit zero must not fall back to default")
	assert.Equal(t, 200, cfg.Limits.Browse)
	assert.Equal(t, DefaultLookupLimit, cfg.Limits.Lookup)
	assert.Equal(t, 0, cfg.Limits.Search)
	assert.Equal(t, time.Minute, cfg.Images.CacheTTL)
	assert.Equal(t, "0.0.0.0:9000", cfg.API.ListenAddr)
	assert.Equal(t, DefaultRateLimit, cfg.API.RateLimit)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "limits:\n  browse: 200\n  lookup: 20\n")
	t.Setenv(EnvLimitBrowse, "300")
	t.Setenv(EnvBusCallTimeout, "2s")
	t.Setenv(EnvLimitLookup, "") // empty is treated as unset

	l := NewLoader(path)
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, 300, cfg.Limits.Browse)
	assert.Equal(t, 20, cfg.Limits.Lookup)
	assert.Equal(t, 2*time.Second, cfg.Bus.CallTimeout)
	assert.Contains(t, l.ConsumedEnvKeys, EnvLimitBrowse)
	assert.Contains(t, l.ConsumedEnvKeys, EnvTelemetrySampling)
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "limits:\n  browse: 10\n  pages: 3\n")
	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownConfigField), "got %v", err)
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, "images:\n  cacheTTL: soon\n")
	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images.cacheTTL")
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")
	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "logLevel: info\n---\nlogLevel: debug\n")
	_, err := NewLoader(path).Load()
	require.Error(t, err)
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML supported")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
}

func TestLoadFileConfig_NoDefaults(t *testing.T) {
	path := writeConfig(t, "limits:\n  search: 7\n")
	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	require.NotNil(t, fc.Limits.Search)
	assert.Equal(t, 7, *fc.Limits.Search)
	assert.Nil(t, fc.Limits.Browse)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"bad log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"zero call timeout", func(c *AppConfig) { c.Bus.CallTimeout = 0 }, "bus.callTimeout"},
		{"negative threshold", func(c *AppConfig) { c.Bus.BreakerThreshold = -1 }, "bus.breakerThreshold"},
		{"breaker without reset", func(c *AppConfig) { c.Bus.BreakerReset = 0 }, "bus.breakerReset"},
		{"negative limit", func(c *AppConfig) { c.Limits.Lookup = -5 }, "limits.lookup"},
		{"negative ttl", func(c *AppConfig) { c.Images.CacheTTL = -time.Second }, "images.cacheTTL"},
		{"bad listen addr", func(c *AppConfig) { c.API.ListenAddr = "8585" }, "api.listenAddr"},
		{"negative rate", func(c *AppConfig) { c.API.RateLimit = -1 }, "api.rateLimit"},
		{"bad exporter", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.ExporterType = "zipkin"
		}, "telemetry.exporterType"},
		{"bad sampling", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.SamplingRate = 1.5
		}, "telemetry.samplingRate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			var fe FieldError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.field, fe.Field)
		})
	}

	t.Run("defaults are valid", func(t *testing.T) {
		assert.NoError(t, Validate(Defaults()))
	})

	t.Run("breaker disabled needs no reset", func(t *testing.T) {
		cfg := Defaults()
		cfg.Bus.BreakerThreshold = 0
		cfg.Bus.BreakerReset = 0
		assert.NoError(t, Validate(cfg))
	})
}
