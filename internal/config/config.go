package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/repository"
	"github.com/spf13/viper"
)

type Config struct {
	ServiceName     string        `mapstructure:"SERVICE_NAME"`
	HTTPAddr        string        `mapstructure:"HTTP_ADDR"`
	GRPCAddr        string        `mapstructure:"GRPC_ADDR"`
	MetricsAddr     string        `mapstructure:"METRICS_ADDR"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	DBDriver      string `mapstructure:"DB_DRIVER"`
	DBHost        string `mapstructure:"DB_HOST"`
	DBPort        int    `mapstructure:"DB_PORT"`
	DBUser        string `mapstructure:"DB_USER"`
	DBPassword    string `mapstructure:"DB_PASSWORD"`
	DBName        string `mapstructure:"DB_NAME"`
	SQLitePath    string `mapstructure:"SQLITE_PATH"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CartCacheTTL  time.Duration `mapstructure:"CART_CACHE_TTL"`

	JWTSecret       string `mapstructure:"JWT_SECRET"`
	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	FrontendURL     string `mapstructure:"FRONTEND_URL"`
	Currency        string `mapstructure:"CURRENCY"`

	KafkaBrokers    []string      `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic      string        `mapstructure:"KAFKA_TOPIC"`
	OutboxTick      time.Duration `mapstructure:"OUTBOX_TICK"`
	OutboxBatchSize int           `mapstructure:"OUTBOX_BATCH_SIZE"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]interface{}{
	"SERVICE_NAME":     "storefront",
	"HTTP_ADDR":        ":8080",
	"GRPC_ADDR":        ":9090",
	"METRICS_ADDR":     ":9091",
	"REQUEST_TIMEOUT":  "10s",
	"SHUTDOWN_TIMEOUT": "15s",

	"DB_DRIVER":      repository.DriverSQLite,
	"DB_HOST":        "localhost",
	"DB_PORT":        5432,
	"DB_USER":        "postgres",
	"DB_PASSWORD":    "",
	"DB_NAME":        "storefront",
	"SQLITE_PATH":    "storefront.db",
	"MIGRATIONS_DIR": "internal/repository/migrations",

	"REDIS_ADDR":     "",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CART_CACHE_TTL": "15m",

	"JWT_SECRET":        "",
	"STRIPE_SECRET_KEY": "",
	"FRONTEND_URL":      "http://localhost:3000",
	"CURRENCY":          "usd",

	"KAFKA_BROKERS":     "localhost:9092",
	"KAFKA_TOPIC":       "order-events",
	"OUTBOX_TICK":       "1s",
	"OUTBOX_BATCH_SIZE": 100,

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",
}

// Load reads the configuration from the environment. A non-empty configFile (.env,
// yaml, json) is read first and environment variables override it.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)
	return cfg, nil
}

// Validate checks the settings the storefront server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case repository.DriverPostgres, repository.DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", repository.DriverPostgres, repository.DriverSQLite, c.DBDriver))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) Credentials() *repository.Credentials {
	return &repository.Credentials{
		Driver:            c.DBDriver,
		Host:              c.DBHost,
		Port:              c.DBPort,
		User:              c.DBUser,
		Password:          c.DBPassword,
		DBName:            c.DBName,
		SQLitePath:        c.SQLitePath,
		MigrationsDirPath: c.MigrationsDir,
	}
}

// splitList accepts both a decoded list and a single comma separated entry.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
