// Package config loads service configuration with koanf. Sources are layered
// and later ones win: struct defaults, config files, then environment
// variables prefixed with the upper-cased service name.
package config

import (
	"errors"
	"fmt"
	"io/fs"
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

// Config is implemented by every loadable service configuration.
type Config interface {
	Validate() error
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // dev, staging, production
}

// DatabaseConfig selects and tunes the status database.
type DatabaseConfig struct {
	Driver          string        `koanf:"driver"` // postgres or sqlite
	Path            string        `koanf:"path"`   // sqlite file
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConnections  int           `koanf:"max_connections"`
	MinConnections  int           `koanf:"min_connections"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	SlowThreshold   time.Duration `koanf:"slow_threshold"`
}

// LoggerConfig mirrors logger.Config in koanf form.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
	OutputPath  string `koanf:"output_path"` // stdout, stderr, or a rotated file
	MaxSizeMB   int    `koanf:"max_size_mb"`
	MaxBackups  int    `koanf:"max_backups"`
	MaxAgeDays  int    `koanf:"max_age_days"`
	Compress    bool   `koanf:"compress"`
}

// MetricsConfig controls the Prometheus endpoint started by serve.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
	Port    int    `koanf:"port"`
}

// Manager loads a Config from layered sources.
type Manager struct {
	k         *koanf.Koanf
	envPrefix string
	files     []string
}

// NewManager creates a manager that searches the default locations for
// serviceName.
func NewManager(serviceName string) *Manager {
	return &Manager{
		k:         koanf.New("."),
		envPrefix: strings.ToUpper(serviceName) + "_",
		files:     searchPaths(serviceName),
	}
}

// WithConfigFile adds an explicit config file. It is loaded after the
// search paths so its values win over theirs.
func (m *Manager) WithConfigFile(path string) *Manager {
	if path != "" {
		m.files = append(m.files, path)
	}
	return m
}

// LoadConfig fills cfg from every source and validates the result.
func (m *Manager) LoadConfig(cfg Config) error {
	if err := m.k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, path := range m.files {
		if err := m.loadFile(path); err != nil {
			return fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	// WATCHSTATE_ENGINE__TRANSACTION_TIMEOUT -> engine.transaction_timeout
	fromEnv := env.Provider(m.envPrefix, ".", func(s string) string {
		return envKey(strings.TrimPrefix(s, m.envPrefix))
	})
	if err := m.k.Load(fromEnv, nil); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := m.k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// loadFile merges path into the manager. Missing files are skipped.
func (m *Manager) loadFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	parser, err := parserFor(path)
	if err != nil {
		return err
	}
	return m.k.Load(file.Provider(path), parser)
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}
}

// envKey maps an unprefixed variable name to a koanf key. A double underscore
// separates levels so that keys may contain single underscores.
func envKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

// searchPaths lists the files checked by default, lowest precedence first.
// CONFIG_PATH, when set, is checked before all of them.
func searchPaths(serviceName string) []string {
	var paths []string
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		paths = append(paths, p)
	}
	for _, dir := range []string{"", "configs/"} {
		for _, name := range []string{"config", serviceName, serviceName + "." + environment()} {
			paths = append(paths, dir+name+".yaml", dir+name+".json")
		}
	}
	return paths
}

func environment() string {
	for _, key := range []string{"ENVIRONMENT", "ENV"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "dev"
}

// Validate checks the driver-specific settings.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" {
			return errors.New("database host is required")
		}
		if c.Port <= 0 || c.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Port)
		}
	case DriverSQLite:
		if c.Path == "" {
			return errors.New("database path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Driver)
	}
	return nil
}
