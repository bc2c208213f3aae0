// Package cache provides the short-lived key/value store that fronts the
// durable flag store. A miss is reported as ok == false with a nil error;
// errors always mean the cache itself could not answer.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCacheUnavailable wraps failures talking to the cache backend.
var ErrCacheUnavailable = errors.New("cache unavailable")

// Cache is the get/set contract required by the flag resolver.
type Cache interface {
	// Get returns the value stored under key. ok is false on a miss.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key for ttl. A non-positive ttl stores without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}

// NewCache creates a cache based on the given type.
// Supported types: "memory", "redis"
func NewCache(ctx context.Context, cacheType string, redisCfg RedisConfig) (Cache, error) {
	switch cacheType {
	case "memory":
		return NewMemoryCache(), nil
	case "redis":
		client, err := Connect(ctx, redisCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return NewRedisCache(client), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cacheType)
	}
}
