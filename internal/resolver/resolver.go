// Package resolver implements cache-aside lookup of flag definitions.
//
// Resolve consults the cache first and falls back to the durable store on a
// miss. Only positive results are cached, for a fixed TTL. Cache problems
// (unreachable, corrupt payload, failed write) never fail a resolve; a
// durable store failure always does.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/TimurManjosov/flagship-eval/internal/cache"
	"github.com/TimurManjosov/flagship-eval/internal/store"
	"github.com/TimurManjosov/flagship-eval/internal/telemetry"
)

var (
	// ErrNotFound is returned when the flag does not exist in the durable store.
	ErrNotFound = errors.New("flag not found")

	// ErrStoreUnavailable wraps any durable store failure other than not-found.
	ErrStoreUnavailable = errors.New("flag store unavailable")
)

const (
	// DefaultTTL bounds how stale a cached flag definition can get.
	DefaultTTL = 15 * time.Second

	cacheKeyPrefix = "sdk"
	cacheKeySep    = ":"
)

// CacheKey builds the cache key for a flag in an environment.
func CacheKey(projectID, environmentKey, flagKey string) string {
	return cacheKeyPrefix + cacheKeySep + projectID + cacheKeySep + environmentKey + cacheKeySep + flagKey
}

// Resolver fetches flag definitions with a cache-aside strategy.
// It is safe for concurrent use; concurrent misses for the same key each read
// the store and rewrite the cache.
type Resolver struct {
	cache cache.Cache
	store store.Store
	ttl   time.Duration
	log   zerolog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for recovered cache failures.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// New creates a resolver in front of st using c as the cache.
func New(c cache.Cache, st store.Store, opts ...Option) *Resolver {
	r := &Resolver{
		cache: c,
		store: st,
		ttl:   DefaultTTL,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the cache TTL in effect.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// Resolve returns the flag definition for (projectID, flagKey) as seen in
// environmentKey. Returns ErrNotFound when the flag does not exist and an
// error wrapping ErrStoreUnavailable when the durable store cannot answer.
func (r *Resolver) Resolve(ctx context.Context, projectID, environmentKey, flagKey string) (*store.Flag, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("flag.project_id", projectID),
		attribute.String("flag.environment", environmentKey),
		attribute.String("flag.key", flagKey),
	)

	key := CacheKey(projectID, environmentKey, flagKey)
	log := r.log.With().Str("cache_key", key).Logger()

	if flag, ok := r.lookup(ctx, key, flagKey, log); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return flag, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	flag, err := r.store.FindFlag(ctx, projectID, flagKey)
	if err != nil {
		if errors.Is(err, store.ErrFlagNotFound) {
			telemetry.StoreReads.WithLabelValues(telemetry.ResultNotFound).Inc()
			return nil, ErrNotFound
		}
		telemetry.StoreReads.WithLabelValues(telemetry.ResultError).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "store read failed")
		return nil, fmt.Errorf("%w: find flag %s/%s: %w", ErrStoreUnavailable, projectID, flagKey, err)
	}
	telemetry.StoreReads.WithLabelValues(telemetry.ResultFound).Inc()

	r.write(ctx, key, flag, log)
	return flag, nil
}

// lookup returns the cached flag, treating every cache problem as a miss.
func (r *Resolver) lookup(ctx context.Context, key, flagKey string, log zerolog.Logger) (*store.Flag, bool) {
	payload, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		telemetry.CacheLookups.WithLabelValues(telemetry.ResultError).Inc()
		log.Warn().Err(err).Msg("flag cache read failed, falling back to store")
		return nil, false
	}
	if !ok {
		telemetry.CacheLookups.WithLabelValues(telemetry.ResultMiss).Inc()
		return nil, false
	}

	var flag store.Flag
	if err := json.Unmarshal([]byte(payload), &flag); err != nil || flag.Key != flagKey {
		telemetry.CacheLookups.WithLabelValues(telemetry.ResultCorrupt).Inc()
		log.Warn().Err(err).Msg("discarding corrupt flag cache entry")
		return nil, false
	}

	telemetry.CacheLookups.WithLabelValues(telemetry.ResultHit).Inc()
	return &flag, true
}

// write stores flag in the cache. Failures are logged and counted only.
func (r *Resolver) write(ctx context.Context, key string, flag *store.Flag, log zerolog.Logger) {
	payload, err := json.Marshal(flag)
	if err != nil {
		telemetry.CacheWriteFailures.Inc()
		log.Warn().Err(err).Msg("encode flag for cache")
		return
	}
	if err := r.cache.Set(context.WithoutCancel(ctx), key, string(payload), r.ttl); err != nil {
		telemetry.CacheWriteFailures.Inc()
		log.Warn().Err(err).Msg("flag cache write failed")
	}
}
