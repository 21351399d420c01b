// Package redisstore persists the EasyNote session token in Redis, so
// several processes on one machine (or one account across machines) share
// a login.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/easynote/easynote-go/session"
)

// DefaultPrefix namespaces the token key.
const DefaultPrefix = "easynote"

var (
	// ErrClientNil is returned when no Redis client is given.
	ErrClientNil = errors.New("redis client cannot be nil")

	// ErrRedisUnavailable wraps every failure talking to Redis.
	ErrRedisUnavailable = errors.New("token redis unavailable")
)

// Storage implements session.TokenStorage on a single Redis key.
type Storage struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ session.TokenStorage = (*Storage)(nil)

// Option configures a Storage.
type Option func(*Storage)

// WithPrefix sets the key namespace. The token lives at "<prefix>:token".
func WithPrefix(prefix string) Option {
	return func(s *Storage) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires the persisted token after d. Zero keeps it until removed.
func WithTTL(d time.Duration) Option {
	return func(s *Storage) {
		if d > 0 {
			s.ttl = d
		}
	}
}

// New returns a Storage using client.
func New(client redis.UniversalClient, opts ...Option) (*Storage, error) {
	if client == nil {
		return nil, ErrClientNil
	}
	s := &Storage{redis: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Key returns the Redis key holding the token.
func (s *Storage) Key() string {
	return s.prefix + ":" + session.TokenKey
}

func (s *Storage) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.Key()).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

func (s *Storage) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.Key(), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *Storage) Remove(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.Key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
