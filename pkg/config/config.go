package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the interface that all service configs must implement.
type Config interface {
	Validate() error
}

// ServiceConfig contains service-specific metadata.
type ServiceConfig struct {
	Name            string        `koanf:"name"`
	Version         string        `koanf:"version"`
	Environment     string        `koanf:"environment"` // dev, staging, production
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// PaginationConfig contains window cursor settings.
type PaginationConfig struct {
	CursorEncryptionKey string        `koanf:"cursor_encryption_key"`
	PageSize            int           `koanf:"page_size"`
	MaxPages            int           `koanf:"max_pages"`
	CursorExpiration    time.Duration `koanf:"cursor_expiration"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
	OutputPath  string `koanf:"output_path"` // stdout, stderr, or file path
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"` // /metrics
	Port    int    `koanf:"port"` // separate port for metrics
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Endpoint     string  `koanf:"endpoint"`
	SamplingRate float64 `koanf:"sampling_rate"` // 0.0 to 1.0
}

// Manager handles configuration loading and parsing.
type Manager struct {
	k           *koanf.Koanf
	serviceName string
	configPaths []string
	aliases     map[string]string
}

// NewManager creates a new configuration manager.
func NewManager(serviceName string) *Manager {
	return &Manager{
		k:           koanf.New("."),
		serviceName: serviceName,
		configPaths: getDefaultConfigPaths(serviceName),
		aliases:     make(map[string]string),
	}
}

// WithConfigPaths replaces the config file search list.
func (m *Manager) WithConfigPaths(paths ...string) *Manager {
	m.configPaths = paths
	return m
}

// WithEnvAlias maps a conventional, unprefixed env var onto a config key.
// Aliases only apply when the prefixed form left the key empty.
func (m *Manager) WithEnvAlias(envVar, key string) *Manager {
	m.aliases[envVar] = key
	return m
}

// LoadConfig loads configuration from all sources.
func (m *Manager) LoadConfig(cfg Config) error {
	// 1. Load defaults from struct tags
	if err := m.loadDefaults(cfg); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load from config files (in order of precedence)
	for _, path := range m.configPaths {
		if err := m.loadFromFile(path); err != nil {
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	// 3. Load from environment variables
	if err := m.loadFromEnv(); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}
	if err := m.applyAliases(); err != nil {
		return fmt.Errorf("failed to apply env aliases: %w", err)
	}

	// 4. Unmarshal into the config struct
	if err := m.k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns a value for the given key.
func (m *Manager) Get(key string) interface{} {
	return m.k.Get(key)
}

// GetString returns a string value for the given key.
func (m *Manager) GetString(key string) string {
	return m.k.String(key)
}

// loadDefaults loads default values from struct.
func (m *Manager) loadDefaults(cfg Config) error {
	return m.k.Load(structs.Provider(cfg, "koanf"), nil)
}

// loadFromFile loads configuration from a file.
func (m *Manager) loadFromFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return m.k.Load(file.Provider(path), parser)
}

// loadFromEnv loads configuration from environment variables.
func (m *Manager) loadFromEnv() error {
	prefix := m.envPrefix()

	return m.k.Load(env.Provider(prefix, ".", func(s string) string {
		return envKey(prefix, s)
	}), nil)
}

func (m *Manager) applyAliases() error {
	for envVar, key := range m.aliases {
		value, ok := os.LookupEnv(envVar)
		if !ok || value == "" || m.k.String(key) != "" {
			continue
		}
		if err := m.k.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) envPrefix() string {
	return strings.ToUpper(m.serviceName) + "_"
}

// envKey converts FANTASYCARDS_TMDB_API_KEY to tmdb.api_key. Only the first
// underscore after the prefix separates section from key.
func envKey(prefix, name string) string {
	rest := strings.ToLower(strings.TrimPrefix(name, prefix))
	section, key, found := strings.Cut(rest, "_")
	if !found {
		return section
	}
	return section + "." + key
}

// getDefaultConfigPaths returns the default config paths to check.
func getDefaultConfigPaths(serviceName string) []string {
	paths := []string{
		"config.yaml",
		"config.json",
		fmt.Sprintf("%s.yaml", serviceName),
		fmt.Sprintf("%s.json", serviceName),

		"configs/config.yaml",
		"configs/config.json",
		fmt.Sprintf("configs/%s.yaml", serviceName),
		fmt.Sprintf("configs/%s.json", serviceName),

		fmt.Sprintf("configs/%s.%s.yaml", serviceName, getEnvironment()),
		fmt.Sprintf("configs/%s.%s.json", serviceName, getEnvironment()),
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		paths = append([]string{configPath}, paths...)
	}

	return paths
}

// getEnvironment returns the current environment.
func getEnvironment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}

// validateCommon validates the sections every service carries.
func validateCommon(service ServiceConfig, metrics MetricsConfig, tracing TracingConfig, pagination PaginationConfig) error {
	if service.Name == "" {
		return errors.New("service name is required")
	}
	if service.Port <= 0 || service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", service.Port)
	}
	if metrics.Enabled && (metrics.Port <= 0 || metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", metrics.Port)
	}
	if tracing.SamplingRate < 0 || tracing.SamplingRate > 1 {
		return fmt.Errorf("tracing sampling rate must be within [0,1], got %v", tracing.SamplingRate)
	}
	if pagination.PageSize < 1 {
		return errors.New("pagination page size must be at least 1")
	}
	if pagination.MaxPages < 1 {
		return errors.New("pagination max pages must be at least 1")
	}
	return nil
}
