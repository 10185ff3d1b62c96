package cache

import (
	"testing"
	"time"

	"salat-go/internal/config"
	"salat-go/internal/testutil"
)

func TestScanPattern(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"salat:prayer_cache_", "salat:prayer_cache_*"},
		{"", "*"},
		{"a*b?[c]", `a\*b\?\[c\]*`},
	}
	for _, tt := range tests {
		if got := scanPattern(tt.prefix); got != tt.want {
			t.Errorf("scanPattern(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestRedisKV_Namespace(t *testing.T) {
	r := NewRedisKV(nil, "salat:", 0)
	if got := r.key("prayer_cache_1"); got != "salat:prayer_cache_1" {
		t.Errorf("key() = %q", got)
	}
	if got := r.strip("salat:prayer_cache_1"); got != "prayer_cache_1" {
		t.Errorf("strip() = %q", got)
	}
}

func TestNewCacheStoreFromConfig(t *testing.T) {
	local := testutil.NewMemoryKV()

	t.Run("local shares the device store", func(t *testing.T) {
		got, err := NewCacheStoreFromConfig(config.CacheConfig{Type: "local"}, local)
		if err != nil {
			t.Fatal(err)
		}
		if got != local {
			t.Error("local cache is not the device store")
		}
	})

	t.Run("redis", func(t *testing.T) {
		got, err := NewCacheStoreFromConfig(config.CacheConfig{Type: "redis", RedisAddr: "localhost:6379", RedisTTLHours: 24}, local)
		if err != nil {
			t.Fatal(err)
		}
		r, ok := got.(*RedisKV)
		if !ok {
			t.Fatalf("got %T, want *RedisKV", got)
		}
		if r.prefix != "salat:" || r.ttl != 24*time.Hour {
			t.Errorf("prefix/ttl = %q/%v", r.prefix, r.ttl)
		}
		r.Close()
	})

	t.Run("redis without address", func(t *testing.T) {
		if _, err := NewCacheStoreFromConfig(config.CacheConfig{Type: "redis"}, local); err == nil {
			t.Error("error = nil")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewCacheStoreFromConfig(config.CacheConfig{Type: "memcached"}, local); err == nil {
			t.Error("error = nil")
		}
	})
}
