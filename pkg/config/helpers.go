package config

import (
	"os"

	"github.com/narwhalmedia/watchstate/pkg/database"
	"github.com/narwhalmedia/watchstate/pkg/logger"
)

// LoadServiceConfig loads cfg for serviceName, with configFile taking
// precedence over the default search paths.
func LoadServiceConfig[T Config](serviceName, configFile string, cfg T) error {
	manager := NewManager(serviceName).WithConfigFile(configFile)
	return manager.LoadConfig(cfg)
}

// ToDatabaseConfig converts config to database package config
func (c DatabaseConfig) ToDatabaseConfig() *database.Config {
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}

	return &database.Config{
		Driver:          c.Driver,
		Path:            c.Path,
		Host:            c.Host,
		Port:            c.Port,
		User:            c.User,
		Password:        c.Password,
		Database:        c.Database,
		SSLMode:         c.SSLMode,
		MaxConnections:  c.MaxConnections,
		MinConnections:  c.MinConnections,
		MaxConnLifetime: c.MaxConnLifetime,
		MaxConnIdleTime: c.MaxConnIdleTime,
		SlowThreshold:   c.SlowThreshold,
	}
}

// ToLoggerConfig converts config to logger package config
func (c LoggerConfig) ToLoggerConfig() *logger.Config {
	return &logger.Config{
		Level:       c.Level,
		Development: c.Development,
		Encoding:    c.Format,
		OutputPath:  c.OutputPath,
		MaxSizeMB:   c.MaxSizeMB,
		MaxBackups:  c.MaxBackups,
		MaxAgeDays:  c.MaxAgeDays,
		Compress:    c.Compress,
	}
}

// GetServiceVersion prefers the configured version, then SERVICE_VERSION.
func GetServiceVersion(cfg *ServiceConfig) string {
	if cfg.Version != "" {
		return cfg.Version
	}

	if version := os.Getenv("SERVICE_VERSION"); version != "" {
		return version
	}

	return "dev"
}
