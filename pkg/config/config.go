// Package config loads runtime settings from the environment (optionally via
// a .env file) and the sweep defaults from YAML.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds process settings.
type Config struct {
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel     string        `env:"LOG_LEVEL" envDefault:"info"`
	Environment  string        `env:"ENVIRONMENT" envDefault:"development"`
	DatabaseURL  string        `env:"DATABASE_URL" json:"-"`
	CacheDir     string        `env:"CACHE_DIR"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	SweepWorkers int           `env:"SWEEP_WORKERS" envDefault:"0"`
	SweepsFile   string        `env:"SWEEPS_FILE" envDefault:"config/sweeps.yaml"`
}

// Load reads .env when present, then parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	return config, nil
}
