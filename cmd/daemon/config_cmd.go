// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ManuGH/dlcat/internal/config"
)

// envConfigDir names the directory searched for config.yaml when -config is
// not given.
const envConfigDir = "DLCAT_CONFIG_DIR"

func runConfigCLI(args []string) int {
	return configCLI(args, os.Stdout, os.Stderr)
}

func configCLI(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printConfigUsage(stderr)
		return 0
	}

	switch args[0] {
	case "validate":
		return runConfigValidate(args[1:], stdout, stderr)
	case "dump":
		return runConfigDump(args[1:], stdout, stderr)
	default:
		fmt.Fprintf(stderr, "Unknown subcommand: %s\n\n", args[0])
		printConfigUsage(stderr)
		return 2
	}
}

func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  daemon config validate [--file|-f config.yaml]")
	fmt.Fprintln(w, "  daemon config dump [--file|-f config.yaml] [--format=yaml|json]")
}

func resolveDefaultConfigPath() string {
	dir := strings.TrimSpace(os.Getenv(envConfigDir))
	if dir == "" {
		if d, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(d, "dlcat")
		}
	}
	if dir == "" {
		return ""
	}
	autoPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}

func configFlags(name string, stderr io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var file string
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	return fs, &file
}

func runConfigValidate(args []string, stdout, stderr io.Writer) int {
	fs, file := configFlags("daemon config validate", stderr)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		path = resolveDefaultConfigPath()
	}
	if path == "" {
		fmt.Fprintf(stderr, "Error: --file is required (no config.yaml found via $%s)\n", envConfigDir)
		return 2
	}

	if _, err := config.NewLoader(path).Load(); err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	fmt.Fprintf(stdout, "%s is valid\n", path)
	return 0
}

// runConfigDump prints the effective configuration (defaults + file + env).
// Without a file it dumps defaults and environment only.
func runConfigDump(args []string, stdout, stderr io.Writer) int {
	fs, file := configFlags("daemon config dump", stderr)
	format := fs.String("format", "yaml", "output format: yaml or json")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	path := strings.TrimSpace(*file)
	if path == "" {
		path = resolveDefaultConfigPath()
	}

	cfg, err := config.NewLoader(path).Load()
	if err != nil {
		fmt.Fprintf(stderr, "Configuration error in %s:\n  %v\n", path, err)
		return 1
	}
	fileCfg := fileConfigFromAppConfig(cfg)

	switch strings.ToLower(strings.TrimSpace(*format)) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(stdout)
		enc.SetIndent(2)
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode YAML: %v\n", err)
			return 1
		}
		_ = enc.Close()
		return 0
	case "json":
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(fileCfg); err != nil {
			fmt.Fprintf(stderr, "Failed to encode JSON: %v\n", err)
			return 1
		}
		return 0
	default:
		fmt.Fprintf(stderr, "Unsupported format: %s (use yaml or json)\n", *format)
		return 2
	}
}

func fileConfigFromAppConfig(cfg config.AppConfig) config.FileConfig {
	threshold := cfg.Bus.BreakerThreshold
	browse, lookup, search := cfg.Limits.Browse, cfg.Limits.Lookup, cfg.Limits.Search
	rateLimit := cfg.API.RateLimit
	enabled := cfg.Telemetry.Enabled
	rate := cfg.Telemetry.SamplingRate

	return config.FileConfig{
		LogLevel:   cfg.LogLevel,
		LogService: cfg.LogService,
		Bus: config.BusFileConfig{
			Address:          cfg.Bus.Address,
			CallTimeout:      cfg.Bus.CallTimeout.String(),
			BreakerThreshold: &threshold,
			BreakerReset:     cfg.Bus.BreakerReset.String(),
		},
		Limits: config.LimitsFileConfig{
			Browse: &browse,
			Lookup: &lookup,
			Search: &search,
		},
		Images: config.ImagesFileConfig{
			CacheTTL: cfg.Images.CacheTTL.String(),
		},
		API: config.APIFileConfig{
			ListenAddr: cfg.API.ListenAddr,
			RateLimit:  &rateLimit,
		},
		Telemetry: config.TelemetryFileConfig{
			Enabled:      &enabled,
			Environment:  cfg.Telemetry.Environment,
			ExporterType: cfg.Telemetry.ExporterType,
			Endpoint:     cfg.Telemetry.Endpoint,
			SamplingRate: &rate,
		},
	}
}
