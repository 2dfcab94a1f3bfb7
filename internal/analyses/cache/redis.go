package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"cv-backend/internal/scoring"
)

const defaultRedisPrefix = "cv:analysis:"

// Redis stores results as JSON strings with a TTL.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOption configures a Redis cache.
type RedisOption func(*Redis)

// WithPrefix overrides the key prefix. Defaults to "cv:analysis:".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis wraps an existing client. The caller owns the client.
func NewRedis(client *redis.Client, ttl time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: defaultRedisPrefix,
		ttl:    ttl,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewRedisFromURL parses a redis:// URL and builds a client for it.
func NewRedisFromURL(rawURL string, ttl time.Duration, opts ...RedisOption) (*Redis, error) {
	options, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedis(redis.NewClient(options), ttl, opts...), nil
}

// Get returns the cached result for key.
func (r *Redis) Get(ctx context.Context, key string) (scoring.Result, bool, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Result{}, false, err
	}
	if r.client == nil {
		return scoring.Result{}, false, errors.New("redis client is nil")
	}
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return scoring.Result{}, false, nil
		}
		return scoring.Result{}, false, fmt.Errorf("redis get: %w", err)
	}
	var result scoring.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return scoring.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return result, true, nil
}

// Set stores result under key with the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, result scoring.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r.client == nil {
		return errors.New("redis client is nil")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

var _ Cache = (*Redis)(nil)
