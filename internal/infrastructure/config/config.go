package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo   MongoConfig
	Redis   RedisConfig
	Tenancy TenancyConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=farmops"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type TenancyConfig struct {
	CacheMaxEntries   int           `env:"CACHE_MAX_ENTRIES,    default=1000"`
	CacheTTL          time.Duration `env:"CACHE_TTL,            default=5m"`
	AuditMaxPerTenant int           `env:"AUDIT_MAX_PER_TENANT, default=1000"`
	UsageRetention    time.Duration `env:"USAGE_RETENTION,      default=720h"`
	MeterWorkers      int           `env:"METER_WORKERS,        default=4"`

	// Base64-encoded 32-byte key; empty disables field encryption.
	FieldEncryptionKey string `env:"FIELD_ENCRYPTION_KEY"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
