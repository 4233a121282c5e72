// Package config provides configuration management for the item catalog server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultServerPort      = 8080
	DefaultProbePort       = 9090
	DefaultLogLevel        = "info"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMetricsEnabled  = true
	DefaultStorageDriver   = "memory"
	DefaultCORSOrigins     = "*"
	DefaultEnvFile         = ".env"
)

// Environment variable names.
const (
	EnvServerPort      = "APP_SERVER_PORT"
	EnvProbePort       = "APP_PROBE_PORT"
	EnvLogLevel        = "APP_LOG_LEVEL"
	EnvShutdownTimeout = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled  = "APP_METRICS_ENABLED"
	EnvStorageDriver   = "APP_STORAGE_DRIVER"
	EnvStorageDSN      = "APP_STORAGE_DSN"
	EnvCORSOrigins     = "APP_CORS_ORIGINS"
	EnvEnvFile         = "APP_ENV_FILE"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	ProbePort       int // Probe server port (0 = disabled).
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool
	CORSOrigins     []string

	// Storage settings.
	StorageDriver string // memory, sqlite or mysql.
	StorageDSN    string
}

// Validation errors.
var (
	ErrInvalidServerPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel        = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidProbePort       = errors.New("probe port must be between 0 and 65535")
	ErrProbePortConflict      = errors.New("probe port must differ from server port when probe port is not 0")
	ErrInvalidStorageDriver   = errors.New("storage driver must be one of: memory, sqlite, mysql")
	ErrMissingStorageDSN      = errors.New("storage DSN must be set unless the storage driver is memory")
	ErrNoCORSOrigins          = errors.New("at least one CORS origin must be configured")
)

var validStorageDrivers = map[string]bool{
	"memory": true,
	"sqlite": true,
	"mysql":  true,
}

// Load reads configuration from an optional dotenv file and environment
// variables, with defaults. Variables already set in the environment win over
// the dotenv file.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:      DefaultServerPort,
		ProbePort:       DefaultProbePort,
		LogLevel:        DefaultLogLevel,
		ShutdownTimeout: DefaultShutdownTimeout,
		MetricsEnabled:  DefaultMetricsEnabled,
		CORSOrigins:     splitList(DefaultCORSOrigins),
		StorageDriver:   DefaultStorageDriver,
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadEnvFile applies APP_ENV_FILE (or .env). A missing file is not an error.
func loadEnvFile() error {
	path := os.Getenv(EnvEnvFile)
	if path == "" {
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// loadFromEnv overrides defaults with the APP_* variables that are set.
func (c *Config) loadFromEnv() error {
	if err := errors.Join(
		envInt(EnvServerPort, &c.ServerPort),
		envInt(EnvProbePort, &c.ProbePort),
		envDuration(EnvShutdownTimeout, &c.ShutdownTimeout),
		envBool(EnvMetricsEnabled, &c.MetricsEnabled),
	); err != nil {
		return err
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = strings.ToLower(val)
	}
	if val, ok := os.LookupEnv(EnvCORSOrigins); ok {
		c.CORSOrigins = splitList(val)
	}
	if val := os.Getenv(EnvStorageDriver); val != "" {
		c.StorageDriver = strings.ToLower(val)
	}
	if val := os.Getenv(EnvStorageDSN); val != "" {
		c.StorageDSN = val
	}
	return nil
}

func envInt(key string, dst *int) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = d
	return nil
}

func envBool(key string, dst *bool) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", key, err)
	}
	*dst = b
	return nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate reports every invalid setting. Each problem matches one of the
// Err* values with errors.Is.
func (c *Config) Validate() error {
	var errs []error

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		errs = append(errs, ErrInvalidServerPort)
	}
	switch {
	case c.ProbePort < 0 || c.ProbePort > 65535:
		errs = append(errs, ErrInvalidProbePort)
	case c.ProbePort != 0 && c.ProbePort == c.ServerPort:
		errs = append(errs, ErrProbePortConflict)
	}
	if !validLogLevels[c.LogLevel] {
		errs = append(errs, ErrInvalidLogLevel)
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, ErrInvalidShutdownTimeout)
	}
	if len(c.CORSOrigins) == 0 {
		errs = append(errs, ErrNoCORSOrigins)
	}

	switch {
	case !validStorageDrivers[c.StorageDriver]:
		errs = append(errs, ErrInvalidStorageDriver)
	case c.StorageDriver != DefaultStorageDriver && c.StorageDSN == "":
		errs = append(errs, ErrMissingStorageDSN)
	}

	return errors.Join(errs...)
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// ProbeAddress returns the probe server address in host:port format.
func (c *Config) ProbeAddress() string {
	return fmt.Sprintf(":%d", c.ProbePort)
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
