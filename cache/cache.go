// Package cache holds short-lived provider responses and processed webhook ids.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"tripplanner/config"
)

// Store is a TTL key/value store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX stores a marker only if the key is absent and reports whether it did
	SetNX(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a Redis store when an address is configured, otherwise an in-process one.
// A Redis that cannot be reached at startup degrades to the in-process store.
func New(cfg config.RedisConfig, logger *zap.Logger) Store {
	if cfg.Addr == "" {
		return NewMemoryStore(5 * time.Minute)
	}
	store, err := NewRedisStore(cfg)
	if err != nil {
		logger.Warn("redis unavailable, using in-process cache", zap.String("addr", cfg.Addr), zap.Error(err))
		return NewMemoryStore(5 * time.Minute)
	}
	return store
}

// GetJSON decodes a cached JSON value into out. A decode failure counts as a miss.
func GetJSON(ctx context.Context, s Store, key string, out any) bool {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// SetJSON encodes value as JSON and stores it
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, raw, ttl)
}
