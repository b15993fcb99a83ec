package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"loftbase/identity/internal/session/domain"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, 0), mr
}

func TestRedisStore_CreateThenGet(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	sess := &domain.Session{
		ID:        "sess-1",
		UserID:    "user-1",
		TenantID:  "t1",
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, s.Create(ctx, sess))

	// Queryable immediately after Create returns.
	got, err := s.Get(ctx, "user-1", "sess-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, sess.UserID, got.UserID)
	require.Equal(t, sess.TenantID, got.TenantID)
}

func TestRedisStore_GetMissingIsNilNotError(t *testing.T) {
	s, _ := newTestStore(t)

	got, err := s.Get(context.Background(), "user-1", "nope")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisStore_Invalidate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &domain.Session{ID: "sess-1", UserID: "user-1", TenantID: "t1"}))
	require.NoError(t, s.Invalidate(ctx, "user-1", "sess-1"))

	got, err := s.Get(ctx, "user-1", "sess-1")
	require.NoError(t, err)
	require.Nil(t, got)

	// Idempotent.
	require.NoError(t, s.Invalidate(ctx, "user-1", "sess-1"))
}

func TestRedisStore_InvalidateAllForUser(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &domain.Session{ID: "s1", UserID: "user-1", TenantID: "t1"}))
	require.NoError(t, s.Create(ctx, &domain.Session{ID: "s2", UserID: "user-1", TenantID: "t1"}))
	require.NoError(t, s.Create(ctx, &domain.Session{ID: "s3", UserID: "user-2", TenantID: "t1"}))

	require.NoError(t, s.InvalidateAllForUser(ctx, "user-1"))

	for _, id := range []string{"s1", "s2"} {
		got, err := s.Get(ctx, "user-1", id)
		require.NoError(t, err)
		require.Nil(t, got)
	}
	// Other users are untouched.
	got, err := s.Get(ctx, "user-2", "s3")
	require.NoError(t, err)
	require.NotNil(t, got)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	s := NewRedisStore(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &domain.Session{ID: "s1", UserID: "user-1", TenantID: "t1"}))

	mr.FastForward(2 * time.Minute)

	got, err := s.Get(ctx, "user-1", "s1")
	require.NoError(t, err)
	require.Nil(t, got)
}
