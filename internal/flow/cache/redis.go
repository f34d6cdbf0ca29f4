package cache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flow-lang/flow/internal/flow/ast"
)

func init() {
	gob.Register(&ast.Program{})
	gob.Register(&ast.Config{})
	gob.Register(&ast.ConfigEntry{})
	gob.Register(&ast.Services{})
	gob.Register(&ast.ServiceDecl{})
	gob.Register(&ast.Header{})
	gob.Register(&ast.Workflow{})
	gob.Register(&ast.SetStatement{})
	gob.Register(&ast.IfStatement{})
	gob.Register(&ast.ForEachStatement{})
	gob.Register(&ast.LogStatement{})
	gob.Register(&ast.CompleteStatement{})
	gob.Register(&ast.RejectStatement{})
	gob.Register(&ast.StepBlock{})
	gob.Register(&ast.ServiceCall{})
	gob.Register(&ast.AskStatement{})
	gob.Register(&ast.StringLiteral{})
	gob.Register(&ast.NumberLiteral{})
	gob.Register(&ast.BooleanLiteral{})
	gob.Register(&ast.Identifier{})
	gob.Register(&ast.DotAccess{})
	gob.Register(&ast.InterpolatedString{})
	gob.Register(&ast.MathExpression{})
	gob.Register(&ast.ComparisonExpression{})
	gob.Register(&ast.LogicalExpression{})
}

// RedisConfig configures the Redis-backed cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// DefaultRedisConfig mirrors the teacher's connection defaults, with a
// cache TTL suited to a long-lived webhook host rather than a build tool.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379", TTL: time.Hour}
}

// Redis is a ProgramCache backed by github.com/redis/go-redis/v9, encoding
// each Entry with encoding/gob. alicebob/miniredis/v2 backs its tests.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to a Redis server and verifies reachability with Ping,
// the same startup check the teacher's RedisCache performs.
func NewRedis(config RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	ttl := config.TTL
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Redis{client: client, ttl: ttl}, nil
}

// NewRedisWithClient wraps an already-constructed client, for tests backed
// by miniredis.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(hash string) (*Entry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := r.client.Get(ctx, hash).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, false
		}
		return nil, false
	}

	var entry Entry
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&entry); err != nil {
		return nil, false
	}
	return &entry, true
}

func (r *Redis) Set(hash string, entry *Entry) error {
	entry.Hash = hash
	entry.CachedAt = time.Now()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.client.Set(ctx, hash, buf.Bytes(), r.ttl).Err()
}

func (r *Redis) Invalidate(hash string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r.client.Del(ctx, hash)
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
