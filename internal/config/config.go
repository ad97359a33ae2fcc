// Package config loads process configuration for the server, worker and migrate commands.
//
// Values come from defaults, an optional config file and SMARTSUPPLY_* environment
// variables, in increasing priority. database.dsn maps to SMARTSUPPLY_DATABASE_DSN.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "SMARTSUPPLY"

// Config is the full process configuration.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	HTTP     HTTPConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name     string
	Env      string
	Port     string
	LogLevel string
}

// IsDevelopment reports whether pretty development logging should be used.
func (a AppConfig) IsDevelopment() bool {
	return a.Env == "development"
}

type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

type RedisConfig struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	CatalogTTL time.Duration
}

type MongoConfig struct {
	Enabled    bool
	URI        string
	Database   string
	Collection string
}

type HTTPConfig struct {
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	RequireConfirmation bool
	IdempotencyEnabled  bool
	IdempotencyTTL      time.Duration
}

type WorkerConfig struct {
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxRetries   int
	ReconcileInterval  time.Duration
	StaleOutboxAge     time.Duration
	MirrorSampleSize   int
	CleanupInterval    time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "smartsupply")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)
	v.SetDefault("database.statement_timeout", "30s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.catalog_ttl", "5m")

	v.SetDefault("mongo.enabled", false)
	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "smartsupply")
	v.SetDefault("mongo.collection", "audit_logs")

	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "30s")
	v.SetDefault("http.idle_timeout", "60s")
	v.SetDefault("http.require_confirmation", false)
	v.SetDefault("http.idempotency_enabled", true)
	v.SetDefault("http.idempotency_ttl", "24h")

	v.SetDefault("worker.outbox_poll_interval", "500ms")
	v.SetDefault("worker.outbox_batch_size", 100)
	v.SetDefault("worker.outbox_max_retries", 5)
	v.SetDefault("worker.reconcile_interval", "5m")
	v.SetDefault("worker.stale_outbox_age", "15m")
	v.SetDefault("worker.mirror_sample_size", 200)
	v.SetDefault("worker.cleanup_interval", "1h")
}

// Load reads configuration. configFile may be empty, in which case config.yaml is
// looked up in the working directory and ./config.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configFile != "" {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Port:     v.GetString("app.port"),
			LogLevel: v.GetString("app.log_level"),
		},
		Database: DatabaseConfig{
			DSN:              v.GetString("database.dsn"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
		},
		Redis: RedisConfig{
			Enabled:    v.GetBool("redis.enabled"),
			Addr:       v.GetString("redis.addr"),
			Password:   v.GetString("redis.password"),
			DB:         v.GetInt("redis.db"),
			CatalogTTL: v.GetDuration("redis.catalog_ttl"),
		},
		Mongo: MongoConfig{
			Enabled:    v.GetBool("mongo.enabled"),
			URI:        v.GetString("mongo.uri"),
			Database:   v.GetString("mongo.database"),
			Collection: v.GetString("mongo.collection"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:         v.GetDuration("http.read_timeout"),
			WriteTimeout:        v.GetDuration("http.write_timeout"),
			IdleTimeout:         v.GetDuration("http.idle_timeout"),
			RequireConfirmation: v.GetBool("http.require_confirmation"),
			IdempotencyEnabled:  v.GetBool("http.idempotency_enabled"),
			IdempotencyTTL:      v.GetDuration("http.idempotency_ttl"),
		},
		Worker: WorkerConfig{
			OutboxPollInterval: v.GetDuration("worker.outbox_poll_interval"),
			OutboxBatchSize:    v.GetInt("worker.outbox_batch_size"),
			OutboxMaxRetries:   v.GetInt("worker.outbox_max_retries"),
			ReconcileInterval:  v.GetDuration("worker.reconcile_interval"),
			StaleOutboxAge:     v.GetDuration("worker.stale_outbox_age"),
			MirrorSampleSize:   v.GetInt("worker.mirror_sample_size"),
			CleanupInterval:    v.GetDuration("worker.cleanup_interval"),
		},
	}

	return cfg, nil
}

// Validate checks settings every command relies on.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (%s_DATABASE_DSN)", envPrefix)
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("database.max_conns (%d) is below database.min_conns (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	positive := map[string]time.Duration{
		"worker.outbox_poll_interval": c.Worker.OutboxPollInterval,
		"worker.reconcile_interval":   c.Worker.ReconcileInterval,
		"worker.stale_outbox_age":     c.Worker.StaleOutboxAge,
		"worker.cleanup_interval":     c.Worker.CleanupInterval,
	}
	for key, d := range positive {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", key, d)
		}
	}
	if c.Worker.OutboxBatchSize <= 0 {
		return fmt.Errorf("worker.outbox_batch_size must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if c.Mongo.Enabled && (c.Mongo.URI == "" || c.Mongo.Database == "") {
		return fmt.Errorf("mongo.uri and mongo.database are required when mongo is enabled")
	}
	return nil
}
