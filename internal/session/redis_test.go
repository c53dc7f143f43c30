package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	st := NewRedisStore(mr.Addr(), "", 0, ttl)
	t.Cleanup(func() { st.Close() })
	return st, mr
}

func TestRedisStore(t *testing.T) {
	st, _ := newTestRedisStore(t, time.Hour)
	require.NoError(t, st.Ping(context.Background()))
	exerciseStore(t, st)
}

func TestRedisStore_TTL(t *testing.T) {
	st, mr := newTestRedisStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, st.Put(ctx, sampleSession("u1")))
	assert.Equal(t, time.Minute, mr.TTL(redisKeyPrefix+"u1"))

	mr.FastForward(2 * time.Minute)
	_, err := st.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	st, mr := newTestRedisStore(t, 0)
	require.NoError(t, mr.Set(redisKeyPrefix+"u1", "not json"))

	_, err := st.Get(context.Background(), "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpen_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	st, err := Open(context.Background(), Config{Backend: BackendRedis, RedisAddr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	_, ok := st.(*RedisStore)
	assert.True(t, ok)
}
