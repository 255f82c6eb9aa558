package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	repo "storefront/internal/repository"
)

func setupSnapshotRedis(t *testing.T, ttl time.Duration) (*SnapshotRedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotRedisStore(client, ttl), mr
}

func TestSnapshotRedis_GetMissing(t *testing.T) {
	s, _ := setupSnapshotRedis(t, 0)

	_, err := s.Get(context.Background(), "cart:none")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestSnapshotRedis_SetThenGet(t *testing.T) {
	ctx := context.Background()
	s, mr := setupSnapshotRedis(t, 0)

	require.NoError(t, s.Set(ctx, "cart:s1", `[{"product":{"id":"a"},"quantity":1}]`))

	v, err := s.Get(ctx, "cart:s1")
	require.NoError(t, err)
	assert.Equal(t, `[{"product":{"id":"a"},"quantity":1}]`, v)
	assert.Zero(t, mr.TTL("cart:s1"))
}

func TestSnapshotRedis_TTLApplied(t *testing.T) {
	ctx := context.Background()
	s, mr := setupSnapshotRedis(t, time.Hour)

	require.NoError(t, s.Set(ctx, "cart:s1", "[]"))
	assert.Equal(t, time.Hour, mr.TTL("cart:s1"))

	mr.FastForward(2 * time.Hour)
	_, err := s.Get(ctx, "cart:s1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestSnapshotRedis_ServerDown(t *testing.T) {
	ctx := context.Background()
	s, mr := setupSnapshotRedis(t, 0)
	mr.Close()

	_, err := s.Get(ctx, "cart:s1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repo.ErrNotFound)
	assert.Error(t, s.Set(ctx, "cart:s1", "[]"))
}
