// Package config loads service settings from CHOREWHEEL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          string
	DBPath        string
	LogLevel      string
	LogFormat     string
	SweepInterval time.Duration
	HistoryWindow int
	Timezone      string
	// GenerateLimit caps manual household generation requests per client per minute.
	GenerateLimit int
}

func Default() Config {
	return Config{
		Port:          "8080",
		DBPath:        "chorewheel.db",
		LogLevel:      "info",
		LogFormat:     "auto",
		SweepInterval: 15 * time.Minute,
		HistoryWindow: 10,
		Timezone:      "UTC",
		GenerateLimit: 10,
	}
}

// Load returns Default overridden by any set environment variables. Values
// that fail to parse are reported rather than ignored.
func Load() (Config, error) {
	return load(os.LookupEnv)
}

func load(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	str("CHOREWHEEL_PORT", &cfg.Port)
	str("CHOREWHEEL_DB_PATH", &cfg.DBPath)
	str("CHOREWHEEL_LOG_LEVEL", &cfg.LogLevel)
	str("CHOREWHEEL_LOG_FORMAT", &cfg.LogFormat)
	str("CHOREWHEEL_TIMEZONE", &cfg.Timezone)
	num("CHOREWHEEL_HISTORY_WINDOW", &cfg.HistoryWindow)
	num("CHOREWHEEL_GENERATE_LIMIT", &cfg.GenerateLimit)

	if v, ok := lookup("CHOREWHEEL_SWEEP_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CHOREWHEEL_SWEEP_INTERVAL: %w", err))
		} else {
			cfg.SweepInterval = d
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and that the time zone exists.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is required"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval))
	}
	if c.HistoryWindow <= 0 {
		errs = append(errs, fmt.Errorf("history window must be positive, got %d", c.HistoryWindow))
	}
	if c.GenerateLimit <= 0 {
		errs = append(errs, fmt.Errorf("generate limit must be positive, got %d", c.GenerateLimit))
	}
	switch c.LogFormat {
	case "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log format must be auto, text or json, got %q", c.LogFormat))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone %q: %w", c.Timezone, err))
	}
	return errors.Join(errs...)
}

// Location returns the configured time zone, UTC if it cannot be loaded.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
