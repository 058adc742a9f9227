package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateStore() error {
	if !slices.Contains(Backends(), c.Store.Backend) {
		return fmt.Errorf("store.backend %q is not supported (expected one of %s)", c.Store.Backend, strings.Join(Backends(), ", "))
	}
	if c.Store.OperationTimeoutSeconds < 0 {
		return errors.New("store.operation_timeout_seconds must be >= 0")
	}
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path must be set for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres backend. Set PRINTQ_POSTGRES_DSN or edit the config file")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis backend")
		}
		if c.Store.RedisDB < 0 {
			return errors.New("store.redis_db must be >= 0")
		}
	case BackendMongo:
		if c.Store.MongoURI == "" {
			return errors.New("store.mongo_uri is required for the mongo backend. Set PRINTQ_MONGO_URI or edit the config file")
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if _, _, err := net.SplitHostPort(c.API.Bind); err != nil {
		return fmt.Errorf("api.bind %q: %w", c.API.Bind, err)
	}
	if c.API.ShutdownTimeoutSeconds < 0 {
		return errors.New("api.shutdown_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (expected console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported (expected debug, info, warn, or error)", c.Logging.Level)
	}
	return nil
}
