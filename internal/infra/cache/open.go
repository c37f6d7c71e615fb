package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

type Config struct {
	Backend     string
	Redis       RedisConfig
	PostgresDSN string
	Badger      BadgerConfig
}

// Open builds the configured store. The returned close func is never nil.
func Open(ctx context.Context, cfg Config) (domain.ProfileCache, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		return NewMemoryCache(), noop, nil
	case BackendRedis:
		rc, err := NewRedisCache(cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return rc, rc.Close, nil
	case BackendPostgres:
		db, err := OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, noop, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, fmt.Errorf("failed to get database instance: %w", err)
		}
		pc, err := NewPostgresCache(db)
		if err != nil {
			_ = sqlDB.Close()
			return nil, noop, err
		}
		return pc, sqlDB.Close, nil
	case BackendBadger:
		bc, err := NewBadgerCache(cfg.Badger)
		if err != nil {
			return nil, noop, err
		}
		return bc, bc.Close, nil
	}
	return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
}
