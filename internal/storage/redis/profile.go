// Package redis provides a Redis-backed profile store.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/codebattle/internal/config"
	"github.com/cory-johannsen/codebattle/internal/profile"
)

// DefaultKeyPrefix namespaces profile keys.
const DefaultKeyPrefix = "codebattle:profile:"

// NewClient creates a go-redis client from cfg and verifies connectivity.
//
// Precondition: cfg.Addr must be non-empty.
// Postcondition: Returns a reachable client or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis: addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		MaxRetries: cfg.MaxRetries,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// ProfileStore implements profile.Store with one JSON value per key.
type ProfileStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

// NewProfileStore creates a ProfileStore. An empty prefix selects
// DefaultKeyPrefix; ttl == 0 keeps profiles forever.
//
// Precondition: client must be non-nil.
func NewProfileStore(client redis.Cmdable, prefix string, ttl time.Duration) *ProfileStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ProfileStore{client: client, prefix: prefix, ttl: ttl}
}

// Key returns the redis key holding profile id.
func (s *ProfileStore) Key(id string) string { return s.prefix + id }

// Load implements profile.Store.
func (s *ProfileStore) Load(ctx context.Context, id string) (profile.Profile, error) {
	raw, err := s.client.Get(ctx, s.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return profile.Profile{}, profile.ErrNotFound
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("getting profile %s: %w", id, err)
	}
	return profile.Decode(raw)
}

// Save implements profile.Store.
func (s *ProfileStore) Save(ctx context.Context, id string, p profile.Profile) error {
	raw, err := profile.Encode(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.Key(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("setting profile %s: %w", id, err)
	}
	return nil
}
