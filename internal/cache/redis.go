// Package cache provides the key-value backends the prayer-time cache can
// live in.
package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"salat-go/internal/salat"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 200

// RedisKV is a salat.KeyValueStore over a Redis database. All keys are
// namespaced under prefix so several devices or apps can share a server.
type RedisKV struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ salat.KeyValueStore = (*RedisKV)(nil)

// NewRedisKV wraps client. A zero ttl keeps entries until overwritten.
func NewRedisKV(client *redis.Client, prefix string, ttl time.Duration) *RedisKV {
	return &RedisKV{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisKV) key(k string) string {
	return r.prefix + k
}

func (r *RedisKV) strip(k string) string {
	return strings.TrimPrefix(k, r.prefix)
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Keys scans for keys starting with prefix and returns them sorted, without
// the namespace.
func (r *RedisKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	var out []string
	iter := r.client.Scan(ctx, 0, scanPattern(r.key(prefix)), scanBatch).Iterator()
	for iter.Next(ctx) {
		out = append(out, r.strip(iter.Val()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// Ping checks the connection.
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *RedisKV) Close() error {
	return r.client.Close()
}

// scanPattern turns a literal prefix into a MATCH glob.
func scanPattern(prefix string) string {
	var b strings.Builder
	for _, c := range prefix {
		switch c {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('*')
	return b.String()
}
