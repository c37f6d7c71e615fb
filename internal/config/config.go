package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
	"github.com/Tealium/tealium-mcp-demo/internal/infra/cache"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`

	Tealium TealiumConfig
	Cache   CacheConfig
	Kafka   KafkaConfig
	Log     LogConfig
}

type TealiumConfig struct {
	Account         string        `envconfig:"TEALIUM_ACCOUNT"`
	Profile         string        `envconfig:"TEALIUM_PROFILE"`
	EngineID        string        `envconfig:"TEALIUM_ENGINE_ID"`
	APIKey          string        `envconfig:"TEALIUM_MOMENTS_API_KEY"`
	BaseURL         string        `envconfig:"TEALIUM_MOMENTS_BASE_URL"`
	RequestTimeout  time.Duration `envconfig:"TEALIUM_REQUEST_TIMEOUT" default:"5s"`
	UseCache        bool          `envconfig:"TEALIUM_USE_CACHE" default:"true"`
	FreshnessWindow time.Duration `envconfig:"TEALIUM_CACHE_FRESHNESS" default:"1h"`
}

type CacheConfig struct {
	Backend       string `envconfig:"CACHE_BACKEND" default:"memory"`
	RedisURL      string `envconfig:"REDIS_URL"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisTLS      bool   `envconfig:"REDIS_TLS" default:"false"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	BadgerPath    string `envconfig:"BADGER_PATH" default:"data/visitors"`
	BadgerSync    bool   `envconfig:"BADGER_SYNC_WRITES" default:"true"`
}

type KafkaConfig struct {
	Brokers     []string `envconfig:"KAFKA_BROKERS"`
	WarmupTopic string   `envconfig:"KAFKA_WARMUP_TOPIC" default:"visitor.warmup"`
	GroupID     string   `envconfig:"KAFKA_GROUP_ID" default:"visitor-resolver"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"info"`
	Format string `envconfig:"LOG_FORMAT" default:"json"`
	Output string `envconfig:"LOG_OUTPUT" default:"stdout"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment configuration: %w", err)
	}
	return &cfg, nil
}

// Resolution is the per-call configuration handed to the resolver. Missing
// Tealium settings are not rejected here; the resolver reports them as a
// ConfigError so callers can surface them.
func (c *Config) Resolution() domain.ResolutionConfig {
	return domain.ResolutionConfig{
		Account:         c.Tealium.Account,
		Profile:         c.Tealium.Profile,
		EngineID:        c.Tealium.EngineID,
		APIKey:          c.Tealium.APIKey,
		BaseURL:         c.Tealium.BaseURL,
		UseCache:        c.Tealium.UseCache,
		FreshnessWindow: c.Tealium.FreshnessWindow,
		RequestTimeout:  c.Tealium.RequestTimeout,
	}
}

func (c *Config) CacheStore() cache.Config {
	return cache.Config{
		Backend: c.Cache.Backend,
		Redis: cache.RedisConfig{
			URL:      c.Cache.RedisURL,
			Addr:     c.Cache.RedisAddr,
			Password: c.Cache.RedisPassword,
			DB:       c.Cache.RedisDB,
			UseTLS:   c.Cache.RedisTLS,
		},
		PostgresDSN: c.Cache.DatabaseURL,
		Badger: cache.BadgerConfig{
			Path:       c.Cache.BadgerPath,
			SyncWrites: c.Cache.BadgerSync,
		},
	}
}
