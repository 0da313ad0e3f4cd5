// Package config loads runtime configuration once at startup. The resulting
// struct is passed explicitly into the client and coordinator constructors
// and never re-read.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/teamflex/teamcredits/internal/analytics"
)

// Env variable names.
const (
	EnvServiceKey = "SERVICE_KEY"
	EnvAPIBaseURL = "TEAMCREDITS_API_URL"
	EnvOutputDir  = "TEAMCREDITS_OUTPUT_DIR"
)

const defaultOutputDir = "output"

// Config is the immutable runtime configuration.
type Config struct {
	// ServiceKey authenticates every analytics request. Required.
	ServiceKey string
	// APIBaseURL is the analytics API root.
	APIBaseURL string
	// OutputDir is where reports and the key-mapping cache land.
	OutputDir string
}

// Load reads .env (when present) and the environment. A missing service key
// is the one fatal configuration error: the run must abort before any
// network call.
func Load() (Config, error) {
	return LoadFrom(".env")
}

// LoadFrom is Load with an explicit .env path, for tests.
func LoadFrom(envPath string) (Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		_ = godotenv.Load(envPath)
	}

	cfg := Config{
		ServiceKey: os.Getenv(EnvServiceKey),
		APIBaseURL: getEnvString(EnvAPIBaseURL, analytics.DefaultBaseURL),
		OutputDir:  getEnvString(EnvOutputDir, defaultOutputDir),
	}

	if cfg.ServiceKey == "" {
		return Config{}, fmt.Errorf("%s not set (export it or add it to .env)", EnvServiceKey)
	}

	return cfg, nil
}

// EnsureOutputDir creates the output directory when missing.
func (c Config) EnsureOutputDir() error {
	if err := os.MkdirAll(c.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
