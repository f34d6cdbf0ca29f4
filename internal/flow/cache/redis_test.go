package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flow-lang/flow/internal/flow/ast"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisWithClient(client, time.Minute), mr
}

func TestNewRedis_ConnectionError(t *testing.T) {
	_, err := NewRedis(RedisConfig{Addr: "localhost:0"})
	assert.Error(t, err)
}

func TestRedis_SetAndGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	prog := &ast.Program{Workflow: &ast.Workflow{}}
	hash := Hash("workflow:\n    complete with status \"ok\"\n")

	err := cache.Set(hash, &Entry{Program: prog})
	require.NoError(t, err)

	entry, ok := cache.Get(hash)
	require.True(t, ok)
	assert.Equal(t, hash, entry.Hash)
	assert.NotZero(t, entry.CachedAt)
	require.NotNil(t, entry.Program.Workflow)
}

func TestRedis_GetMiss(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	_, ok := cache.Get("nonexistent")
	assert.False(t, ok)
}

func TestRedis_Invalidate(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()

	hash := Hash("source")
	require.NoError(t, cache.Set(hash, &Entry{Program: &ast.Program{}}))

	_, ok := cache.Get(hash)
	require.True(t, ok)

	cache.Invalidate(hash)

	_, ok = cache.Get(hash)
	assert.False(t, ok)
}

func TestRedis_TTLExpiration(t *testing.T) {
	cache, mr := setupTestRedis(t)
	defer mr.Close()
	defer cache.Close()
	cache.ttl = 50 * time.Millisecond

	hash := Hash("source")
	require.NoError(t, cache.Set(hash, &Entry{Program: &ast.Program{}}))

	_, ok := cache.Get(hash)
	require.True(t, ok)

	mr.FastForward(100 * time.Millisecond)

	_, ok = cache.Get(hash)
	assert.False(t, ok)
}

func TestDefaultRedisConfig(t *testing.T) {
	config := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", config.Addr)
	assert.Equal(t, "", config.Password)
	assert.Equal(t, 0, config.DB)
	assert.Equal(t, time.Hour, config.TTL)
}
