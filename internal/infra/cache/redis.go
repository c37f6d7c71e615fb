package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"

	"github.com/Tealium/tealium-mcp-demo/internal/domain"
)

// keyPrefix namespaces visitor entries in key-value backends.
const keyPrefix = "visitor:"

type RedisCache struct {
	client *redis.Client
}

type RedisConfig struct {
	URL      string
	Addr     string
	Password string
	DB       int
	UseTLS   bool
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	if cfg.UseTLS && opts.TLSConfig == nil {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	decompressed, err := decompress(val)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	if decompressed == nil {
		return nil, nil
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(decompressed, &entry); err != nil {
		return nil, err
	}
	entry.Key = key
	return &entry, nil
}

// Put overwrites the key without expiry; freshness is judged on read.
func (r *RedisCache) Put(ctx context.Context, entry domain.CacheEntry) error {
	val, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	compressed, err := compress(val)
	if err != nil {
		return fmt.Errorf("failed to compress: %w", err)
	}

	return r.client.Set(ctx, keyPrefix+entry.Key, compressed, 0).Err()
}

func compress(data []byte) ([]byte, error) {
	var b bytes.Buffer
	w := gzip.NewWriter(&b)
	_, err := w.Write(data)
	if err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
