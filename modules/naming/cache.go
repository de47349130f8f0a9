package naming

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "palette:colorname:"

// NameCache - hex → 이름 캐시
type NameCache interface {
	Get(ctx context.Context, hex string) (string, bool)
	Set(ctx context.Context, hex, name string)
}

func cacheKey(hex string) string {
	return strings.ToLower(strings.TrimPrefix(hex, "#"))
}

// MemoryCache - 프로세스 내 캐시 (go-cache)
type MemoryCache struct {
	c *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.New(ttl, ttl*2)}
}

func (m *MemoryCache) Get(_ context.Context, hex string) (string, bool) {
	v, ok := m.c.Get(cacheKey(hex))
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}

func (m *MemoryCache) Set(_ context.Context, hex, name string) {
	m.c.Set(cacheKey(hex), name, cache.DefaultExpiration)
}

// RedisCache - 여러 인스턴스가 공유하는 캐시
// Redis 오류는 캐시 miss 로 취급한다
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, hex string) (string, bool) {
	name, err := r.rdb.Get(ctx, redisKeyPrefix+cacheKey(hex)).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ [Naming] Redis GET failed: %v", err)
		}
		return "", false
	}
	return name, true
}

func (r *RedisCache) Set(ctx context.Context, hex, name string) {
	if err := r.rdb.Set(ctx, redisKeyPrefix+cacheKey(hex), name, r.ttl).Err(); err != nil {
		log.Printf("⚠️ [Naming] Redis SET failed: %v", err)
	}
}

// NewCache - Redis 클라이언트가 있으면 Redis, 없으면 메모리 캐시
func NewCache(rdb *redis.Client, ttl time.Duration) NameCache {
	if rdb != nil {
		log.Printf("🗂️ [Naming] Using Redis name cache (ttl: %v)", ttl)
		return NewRedisCache(rdb, ttl)
	}
	log.Printf("🗂️ [Naming] Using in-memory name cache (ttl: %v)", ttl)
	return NewMemoryCache(ttl)
}
