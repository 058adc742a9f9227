package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir" yaml:"data_dir"`
	LogDir  string `toml:"log_dir" yaml:"log_dir"`
}

// Store selects and configures the queue persistence backend.
type Store struct {
	Backend                 string `toml:"backend" yaml:"backend"`
	SQLitePath              string `toml:"sqlite_path" yaml:"sqlite_path"`
	PostgresDSN             string `toml:"postgres_dsn" yaml:"postgres_dsn"`
	RedisAddr               string `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword           string `toml:"redis_password" yaml:"redis_password"`
	RedisDB                 int    `toml:"redis_db" yaml:"redis_db"`
	RedisKeyPrefix          string `toml:"redis_key_prefix" yaml:"redis_key_prefix"`
	MongoURI                string `toml:"mongo_uri" yaml:"mongo_uri"`
	MongoDatabase           string `toml:"mongo_database" yaml:"mongo_database"`
	OperationTimeoutSeconds int    `toml:"operation_timeout_seconds" yaml:"operation_timeout_seconds"`
}

// API contains configuration for the HTTP surface.
type API struct {
	Bind                   string `toml:"bind" yaml:"bind"`
	ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds" yaml:"shutdown_timeout_seconds"`
	Metrics                bool   `toml:"metrics" yaml:"metrics"`
	Token                  string `toml:"token" yaml:"token"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
}

// Config encapsulates all configuration values for printq.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Store: backend selection and connection settings
//   - API: HTTP bind address, shutdown timeout, metrics endpoint, bearer token
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths" yaml:"paths"`
	Store   Store   `toml:"store" yaml:"store"`
	API     API     `toml:"api" yaml:"api"`
	Logging Logging `toml:"logging" yaml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		return decoder.Decode(cfg)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("printq.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Store.Backend == BackendSQLite && c.Store.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(c.Store.SQLitePath), 0o755); err != nil {
			return fmt.Errorf("create directory for %q: %w", c.Store.SQLitePath, err)
		}
	}
	return nil
}

// OperationTimeout bounds a single store round trip.
func (c *Config) OperationTimeout() time.Duration {
	return time.Duration(c.Store.OperationTimeoutSeconds) * time.Second
}

// ShutdownTimeout bounds graceful HTTP shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.API.ShutdownTimeoutSeconds) * time.Second
}

// LockPath is the file the serve command locks to keep a single server per data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "printq.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
