package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crucible-ai/crucible/internal/circuitbreaker"
)

// RedisStore is the key-value backend. Records are JSON blobs with native
// Redis TTLs; all calls go through a circuit-breaker-wrapped client.
type RedisStore struct {
	client *circuitbreaker.RedisWrapper
	logger *zap.Logger
	ttl    time.Duration
}

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	wrapped := circuitbreaker.NewRedisWrapper(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wrapped.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	logger.Info("Redis store initialized",
		zap.String("addr", cfg.Addr),
		zap.Duration("ttl", ttl),
	)

	return &RedisStore{
		client: wrapped,
		logger: logger,
		ttl:    ttl,
	}, nil
}

// Set writes value under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Get returns the value for key, or ErrNotFound.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

// ScanByPrefix returns all keys with the given prefix.
func (s *RedisStore) ScanByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys, err := s.client.ScanKeys(ctx, prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefix %s: %w", prefix, err)
	}
	return keys, nil
}

// Ping verifies the backend is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Degraded reports whether the circuit breaker has opened.
func (s *RedisStore) Degraded() bool {
	return s.client.IsCircuitBreakerOpen()
}
