package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestStore_MissingKeyIsNotFound(t *testing.T) {
	s, _ := newTestStore(t)

	v, found, err := s.Get(context.Background(), "chat:sessions:none")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "", v)
}

func TestStore_SetGetAndExpiry(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "rl:ip:1.2.3.4:10", "3", time.Hour))
	v, found, err := s.Get(ctx, "rl:ip:1.2.3.4:10")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "3", v)
	assert.Equal(t, time.Hour, mr.TTL("rl:ip:1.2.3.4:10"))

	// a second Set resets the TTL
	mr.FastForward(50 * time.Minute)
	require.NoError(t, s.Set(ctx, "rl:ip:1.2.3.4:10", "4", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("rl:ip:1.2.3.4:10"))

	mr.FastForward(time.Hour)
	_, found, err = s.Get(ctx, "rl:ip:1.2.3.4:10")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_ErrorsSurface(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))

	mr.SetError("ERR injected failure")
	_, found, err := s.Get(context.Background(), "k")
	require.Error(t, err)
	assert.False(t, found)
	assert.Error(t, s.Set(context.Background(), "k", "v", time.Minute))
}

func TestNewWithClient(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer s.Close()

	require.NoError(t, mr.Set("email:sent:abc", "1700000000000"))
	v, found, err := s.Get(context.Background(), "email:sent:abc")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1700000000000", v)
}
