package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"salat-go/internal/config"
	"salat-go/internal/salat"
)

// NewCacheStoreFromConfig returns the store cached prayer months live in.
// The "local" type shares the device store passed as local.
func NewCacheStoreFromConfig(cfg config.CacheConfig, local salat.KeyValueStore) (salat.KeyValueStore, error) {
	switch cfg.Type {
	case "local", "":
		return local, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache requires redis_addr to be set")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = "salat:"
		}
		return NewRedisKV(client, prefix, time.Duration(cfg.RedisTTLHours)*time.Hour), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Type)
	}
}
