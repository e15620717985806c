// Package config provides configuration loading for the results service.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config contains the service configuration
type Config struct {
	// Port the results API listens on.
	Port string `yaml:"port"`
	// DataDir is where the embedded PocketBase keeps its data.
	DataDir string `yaml:"data_dir"`
	// PBHTTPAddr is the bind address for the PocketBase admin UI.
	PBHTTPAddr string `yaml:"pb_http_addr"`
	// SnapshotDir is the default directory of raw JRV snapshot bundles.
	SnapshotDir string `yaml:"snapshot_dir"`
	// ExportDir is where CSV exports are written.
	ExportDir string `yaml:"export_dir"`
	// WorkerCount is the number of concurrent ingest workers.
	WorkerCount int `yaml:"worker_count"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Port:        "8080",
		DataDir:     "./pb_data",
		PBHTTPAddr:  "0.0.0.0:8090",
		SnapshotDir: "./data/snapshots",
		ExportDir:   "./data/exports",
		WorkerCount: 4,
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by CONFIG_FILE, and environment variable overrides, in that order.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.PBHTTPAddr = getEnv("PB_HTTP_ADDR", cfg.PBHTTPAddr)
	cfg.SnapshotDir = getEnv("SNAPSHOT_DIR", cfg.SnapshotDir)
	cfg.ExportDir = getEnv("EXPORT_DIR", cfg.ExportDir)
	cfg.WorkerCount = getEnvAsInt("WORKER_COUNT", cfg.WorkerCount)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.WorkerCount < 1 {
		return fmt.Errorf("worker_count must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
