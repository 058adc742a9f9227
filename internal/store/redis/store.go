// Package redis implements queue.Store on Redis. Each entry is a hash, a set
// tracks every job reference, and the active namespace is a sorted set
// scored by position plus a position to job reference hash. Inserts,
// compare-and-set updates and purges run as Lua scripts so each is atomic.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client, "{printq}")
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"printq/internal/logging"
	"printq/internal/queue"
)

var _ queue.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store implements queue.Store backed by Redis.
type Store struct {
	client goredis.UniversalClient
	keys   keyspace
	logger *slog.Logger
	owned  bool
}

// New wraps client. Keys are namespaced under prefix. The caller owns the
// client lifecycle.
func New(client goredis.UniversalClient, prefix string, opts ...Option) *Store {
	s := &Store{client: client, keys: newKeyspace(prefix), logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "store.redis")
	return s
}

// Open dials addr and verifies the connection. The returned store closes the
// client on Close.
func Open(ctx context.Context, addr, password string, db int, prefix string, opts ...Option) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	s := New(client, prefix, opts...)
	s.owned = true
	if err := s.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	s.logger.Debug("connected", logging.String("addr", addr), logging.String("prefix", s.keys.prefix))
	return s, nil
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.UniversalClient { return s.client }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
