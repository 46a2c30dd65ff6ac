package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config captures the runtime configuration for the Cinemax application.
type Config struct {
	DataDir     string
	DatabaseURL string
	LogLevel    string

	GeminiAPIKey    string
	GeminiModel     string
	MetadataTimeout time.Duration
	MetadataTTL     time.Duration
	MetadataPerMin  int

	ObjectStore ObjectStoreConfig
}

// ObjectStoreConfig describes an optional S3-compatible blob backend.
type ObjectStoreConfig struct {
	Bucket   string
	Region   string
	Endpoint string
}

// Load reads configuration from environment variables, applying sensible
// defaults for local use while allowing overrides through the environment.
func Load() (Config, error) {
	cfg := Config{
		DataDir:         getString("CINEMAX_DATA_DIR", defaultDataDir()),
		DatabaseURL:     getString("CINEMAX_DATABASE_URL", ""),
		LogLevel:        getString("CINEMAX_LOG_LEVEL", "info"),
		GeminiAPIKey:    getString("CINEMAX_GEMINI_API_KEY", os.Getenv("API_KEY")),
		GeminiModel:     getString("CINEMAX_GEMINI_MODEL", "gemini-3-flash-preview"),
		MetadataTimeout: getDuration("CINEMAX_METADATA_TIMEOUT", 15*time.Second),
		MetadataTTL:     getDuration("CINEMAX_METADATA_CACHE_TTL", 15*time.Minute),
		MetadataPerMin:  getInt("CINEMAX_METADATA_PER_MINUTE", 30),
		ObjectStore: ObjectStoreConfig{
			Bucket:   getString("CINEMAX_S3_BUCKET", ""),
			Region:   getString("CINEMAX_S3_REGION", "us-east-1"),
			Endpoint: getString("CINEMAX_S3_ENDPOINT", ""),
		},
	}

	return cfg, nil
}

// UseDatabase reports whether state should live in PostgreSQL instead of
// the on-device store.
func (c Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

// UseObjectStore reports whether blobs should live in an S3-compatible
// bucket instead of the on-device store.
func (c Config) UseObjectStore() bool {
	return c.ObjectStore.Bucket != ""
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cinemax"
	}
	return filepath.Join(home, ".cinemax")
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
