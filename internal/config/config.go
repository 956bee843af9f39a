package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config captures runtime configuration sourced from environment variables.
// Tunables that operators change at runtime (shard size, export interval,
// proxy category names) live in the settings table instead.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string
	ExportDir    string
}

// Load reads env vars and falls back to defaults so the service can boot with zero configuration.
func Load() (Config, error) {
	cfg := Config{
		Environment:  getEnv("BF_ENV", "development"),
		HTTPPort:     getEnv("BF_HTTP_PORT", "8080"),
		DatabasePath: getEnv("BF_DB_PATH", filepath.Join("data", "blackfeed.db")),
		ExportDir:    getEnv("BF_EXPORT_DIR", filepath.Join("data", "export")),
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.ExportDir, 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure export directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
