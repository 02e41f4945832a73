package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisConfig{Addr: mr.Addr()}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestRedisStoreSetGet(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "request:abc", []byte(`{"id":"abc"}`), 0))

	got, err := s.Get(ctx, "request:abc")
	require.NoError(t, err)
	require.Equal(t, []byte(`{"id":"abc"}`), got)
}

func TestRedisStoreDefaultTTL(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "session:xyz", []byte("{}"), 0))
	require.Equal(t, DefaultTTL, mr.TTL("session:xyz"))

	require.NoError(t, s.Set(ctx, "session:short", []byte("{}"), time.Minute))
	require.Equal(t, time.Minute, mr.TTL("session:short"))
}

func TestRedisStoreGetMissing(t *testing.T) {
	s, _ := newTestRedisStore(t)

	_, err := s.Get(context.Background(), "request:nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreScanByPrefix(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "code:1", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "code:2", []byte("b"), 0))
	require.NoError(t, s.Set(ctx, "review:1", []byte("c"), 0))

	keys, err := s.ScanByPrefix(ctx, "code:")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"code:1", "code:2"}, keys)
}

func TestRedisStoreExpiry(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "ranking:1", []byte("{}"), time.Second))
	mr.FastForward(2 * time.Second)

	_, err := s.Get(ctx, "ranking:1")
	require.ErrorIs(t, err, ErrNotFound)
}
