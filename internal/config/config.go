// Package config loads the process-wide RuntimeConfig from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// RuntimeConfig is immutable for the life of the process. It is loaded once
// at startup and shared (read-only) by every component.
type RuntimeConfig struct {
	MaxMemoryPages       int    // page = 65536 bytes
	MaxTableElements     int
	MaxInstances         int
	FuelLimit            uint64
	DefaultTimeoutSeconds int
	MaxTimeoutSeconds    int
	MaxModuleBytes       int64
	ModuleBaseDir        string
	MaxRequestBodyBytes  int64
	BindAddr             string
}

const (
	defaultMaxMemoryPages       = 160  // ~10 MiB
	defaultMaxTableElements     = 1000
	defaultMaxInstances         = 10
	defaultFuelLimit            = 10_000_000_000
	defaultTimeoutSeconds       = 30
	defaultMaxTimeoutSeconds    = 300
	defaultMaxModuleBytes       = 10 * 1024 * 1024
	defaultMaxRequestBodyBytes  = 1 * 1024 * 1024
	defaultBindAddr             = "127.0.0.1:8080"
)

// Load reads RuntimeConfig from the environment, falling back to documented
// defaults for anything unset. Every variable follows the same WASM_*
// naming for consistency.
func Load() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{
		MaxMemoryPages:        defaultMaxMemoryPages,
		MaxTableElements:      defaultMaxTableElements,
		MaxInstances:          defaultMaxInstances,
		FuelLimit:             defaultFuelLimit,
		DefaultTimeoutSeconds: defaultTimeoutSeconds,
		MaxTimeoutSeconds:     defaultMaxTimeoutSeconds,
		MaxModuleBytes:        defaultMaxModuleBytes,
		MaxRequestBodyBytes:   defaultMaxRequestBodyBytes,
		BindAddr:              defaultBindAddr,
	}

	var err error
	if cfg.MaxMemoryPages, err = envInt("WASM_MAX_MEMORY_PAGES", cfg.MaxMemoryPages); err != nil {
		return nil, err
	}
	if cfg.MaxTableElements, err = envInt("WASM_MAX_TABLE_ELEMENTS", cfg.MaxTableElements); err != nil {
		return nil, err
	}
	if cfg.MaxInstances, err = envInt("WASM_MAX_INSTANCES", cfg.MaxInstances); err != nil {
		return nil, err
	}
	fuel, err := envUint("WASM_FUEL_LIMIT", cfg.FuelLimit)
	if err != nil {
		return nil, err
	}
	cfg.FuelLimit = fuel
	if cfg.DefaultTimeoutSeconds, err = envInt("WASM_DEFAULT_TIMEOUT_SECONDS", cfg.DefaultTimeoutSeconds); err != nil {
		return nil, err
	}
	if cfg.MaxTimeoutSeconds, err = envInt("WASM_MAX_TIMEOUT_SECONDS", cfg.MaxTimeoutSeconds); err != nil {
		return nil, err
	}
	moduleBytes, err := envInt64("WASM_MAX_MODULE_BYTES", cfg.MaxModuleBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxModuleBytes = moduleBytes
	bodyBytes, err := envInt64("WASM_MAX_REQUEST_BODY_BYTES", cfg.MaxRequestBodyBytes)
	if err != nil {
		return nil, err
	}
	cfg.MaxRequestBodyBytes = bodyBytes

	cfg.BindAddr = envOr("WASM_BIND_ADDR", cfg.BindAddr)

	baseDir := envOr("WASM_MODULE_DIR", "")
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve default module base dir: %w", err)
		}
		baseDir = wd
	}
	abs, err := resolveBaseDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve module base dir %q: %w", baseDir, err)
	}
	cfg.ModuleBaseDir = abs

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envInt64(key string, def int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envUint(key string, def uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
