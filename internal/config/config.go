package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvLogLevel = "EDGE_DETECT_LOG_LEVEL"
	EnvBackend  = "EDGE_DETECT_BACKEND"
	EnvLayout   = "EDGE_DETECT_LAYOUT"
	EnvTint     = "EDGE_DETECT_TINT"
	EnvWorkers  = "EDGE_DETECT_WORKERS"
)

// Config holds settings taken from the environment. CLI flags override it.
type Config struct {
	LogLevel string
	// Backend is empty unless set explicitly; there is no default backend.
	Backend string
	Layout  string
	Tint    string
	Workers int
}

// Load reads the environment, first loading a .env file from the working
// directory if one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LogLevel: os.Getenv(EnvLogLevel),
		Backend:  os.Getenv(EnvBackend),
		Layout:   getenv(EnvLayout, "bgra"),
		Tint:     getenv(EnvTint, "#FFFFFF"),
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
