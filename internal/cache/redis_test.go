package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKV(t *testing.T, prefix string, ttl time.Duration) (*RedisKV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisKVFromClient(client, prefix, ttl), mr
}

func TestRedisKV_PutGet(t *testing.T) {
	kv, mr := newTestKV(t, "lazytodo", 0)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "tasks:alice")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Put(ctx, "tasks:alice", []byte(`[]`)))
	assert.True(t, mr.Exists("lazytodo:tasks:alice"))

	value, ok, err := kv.Get(ctx, "tasks:alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, string(value))
}

func TestRedisKV_Health(t *testing.T) {
	kv, mr := newTestKV(t, "lazytodo", 0)

	require.NoError(t, kv.Health(context.Background()))

	mr.Close()
	assert.Error(t, kv.Health(context.Background()))
}

func TestRedisKV_TTL(t *testing.T) {
	kv, mr := newTestKV(t, "", time.Minute)
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "tasks:bob", []byte(`[]`)))
	assert.Equal(t, time.Minute, mr.TTL("tasks:bob"))

	mr.FastForward(2 * time.Minute)
	_, ok, err := kv.Get(ctx, "tasks:bob")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisKV_UnreachableServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisKV(context.Background(), RedisConfig{Addr: addr})
	assert.Error(t, err)
}
