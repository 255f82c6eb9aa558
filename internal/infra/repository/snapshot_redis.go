package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	repo "storefront/internal/repository"

	"github.com/redis/go-redis/v9"
)

// SnapshotRedisStore keeps cart snapshots as plain string values.
// A zero ttl keeps keys until overwritten.
type SnapshotRedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotRedisStore(client *redis.Client, ttl time.Duration) *SnapshotRedisStore {
	return &SnapshotRedisStore{client: client, ttl: ttl}
}

func (s *SnapshotRedisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", repo.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return v, nil
}

func (s *SnapshotRedisStore) Set(ctx context.Context, key string, value string) error {
	if err := s.client.Set(ctx, key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
