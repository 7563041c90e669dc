package config

import (
	"fmt"
	"os"

	"github.com/narwhalmedia/fantasycards/pkg/logger"
)

// LoadCatalogConfig loads the catalog configuration, honouring the
// conventional TMDB_API_KEY and SITE_URL variables alongside the prefixed ones.
// Explicit paths replace the default config file search list.
func LoadCatalogConfig(serviceName string, paths ...string) (*CatalogConfig, error) {
	cfg := GetDefaultCatalogConfig()
	manager := NewManager(serviceName).
		WithEnvAlias("TMDB_API_KEY", "tmdb.api_key").
		WithEnvAlias("SITE_URL", "site.url")
	if len(paths) > 0 {
		manager = manager.WithConfigPaths(paths...)
	}
	if err := manager.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToLoggerConfig converts config to logger package config.
func (c LoggerConfig) ToLoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Development {
		cfg = logger.DevelopmentConfig()
	}
	if c.Level != "" {
		cfg.Level = c.Level
	}
	if c.Format != "" {
		cfg.Encoding = c.Format
	}
	if c.OutputPath != "" {
		cfg.OutputPaths = []string{c.OutputPath}
	}
	return cfg
}

// GetServiceVersion returns the service version from config or env.
func GetServiceVersion(cfg *ServiceConfig) string {
	if cfg.Version != "" {
		return cfg.Version
	}

	if version := os.Getenv("SERVICE_VERSION"); version != "" {
		return version
	}

	return "dev"
}

// IsProduction returns true if running in production environment
func IsProduction(cfg *ServiceConfig) bool {
	return cfg.Environment == "production" || cfg.Environment == "prod"
}

// GetListenAddress returns the formatted listen address for HTTP server
func GetListenAddress(cfg *ServiceConfig) string {
	return fmt.Sprintf(":%d", cfg.Port)
}

// GetMetricsListenAddress returns the listen address for the metrics server.
func GetMetricsListenAddress(cfg *MetricsConfig) string {
	return fmt.Sprintf(":%d", cfg.Port)
}

// CursorKey returns the cursor key normalised to 32 bytes, zero padded or
// truncated. Empty means window cursors are disabled.
func (c PaginationConfig) CursorKey() []byte {
	if c.CursorEncryptionKey == "" {
		return nil
	}
	key := make([]byte, 32)
	copy(key, c.CursorEncryptionKey)
	return key
}
