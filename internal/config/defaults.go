package config

const (
	defaultConfigPath              = "~/.config/printq/config.toml"
	defaultDataDir                 = "~/.local/share/printq"
	defaultLogDir                  = "~/.local/share/printq/logs"
	defaultSQLiteFile              = "queue.db"
	defaultRedisAddr               = "127.0.0.1:6379"
	defaultRedisKeyPrefix          = "{printq}"
	defaultMongoDatabase           = "printq"
	defaultOperationTimeoutSeconds = 10
	defaultAPIBind                 = "127.0.0.1:7480"
	defaultShutdownTimeoutSeconds  = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Store backend names accepted in store.backend.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMongo    = "mongo"
)

// Backends lists every supported store backend.
func Backends() []string {
	return []string{BackendSQLite, BackendMemory, BackendPostgres, BackendRedis, BackendMongo}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Store: Store{
			Backend:                 BackendSQLite,
			RedisAddr:               defaultRedisAddr,
			RedisKeyPrefix:          defaultRedisKeyPrefix,
			MongoDatabase:           defaultMongoDatabase,
			OperationTimeoutSeconds: defaultOperationTimeoutSeconds,
		},
		API: API{
			Bind:                   defaultAPIBind,
			ShutdownTimeoutSeconds: defaultShutdownTimeoutSeconds,
			Metrics:                true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
