package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case "":
		c.Store.Backend = BackendSQLite
	case "postgresql", "pg":
		c.Store.Backend = BackendPostgres
	case "mongodb":
		c.Store.Backend = BackendMongo
	}

	c.Store.SQLitePath = strings.TrimSpace(c.Store.SQLitePath)
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = filepath.Join(c.Paths.DataDir, defaultSQLiteFile)
	}
	var err error
	if c.Store.SQLitePath, err = expandPath(c.Store.SQLitePath); err != nil {
		return fmt.Errorf("store.sqlite_path: %w", err)
	}

	c.Store.PostgresDSN = envFallback(c.Store.PostgresDSN, "PRINTQ_POSTGRES_DSN")
	c.Store.RedisAddr = envFallback(c.Store.RedisAddr, "PRINTQ_REDIS_ADDR")
	if c.Store.RedisAddr == "" {
		c.Store.RedisAddr = defaultRedisAddr
	}
	c.Store.RedisPassword = envFallback(c.Store.RedisPassword, "PRINTQ_REDIS_PASSWORD")
	c.Store.RedisKeyPrefix = strings.Trim(strings.TrimSpace(c.Store.RedisKeyPrefix), ":")
	if c.Store.RedisKeyPrefix == "" {
		c.Store.RedisKeyPrefix = defaultRedisKeyPrefix
	}
	c.Store.MongoURI = envFallback(c.Store.MongoURI, "PRINTQ_MONGO_URI")
	c.Store.MongoDatabase = strings.TrimSpace(c.Store.MongoDatabase)
	if c.Store.MongoDatabase == "" {
		c.Store.MongoDatabase = defaultMongoDatabase
	}
	if c.Store.OperationTimeoutSeconds == 0 {
		c.Store.OperationTimeoutSeconds = defaultOperationTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	if c.API.ShutdownTimeoutSeconds == 0 {
		c.API.ShutdownTimeoutSeconds = defaultShutdownTimeoutSeconds
	}
	c.API.Token = envFallback(c.API.Token, "PRINTQ_API_TOKEN")
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "text", "pretty":
		c.Logging.Format = defaultLogFormat
	default:
		c.Logging.Format = format
	}
	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch level {
	case "":
		c.Logging.Level = defaultLogLevel
	case "warning":
		c.Logging.Level = "warn"
	default:
		c.Logging.Level = level
	}
}

// envFallback returns value when set, otherwise the trimmed environment variable.
func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}
