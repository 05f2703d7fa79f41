package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisCache is a Redis-backed phrase cache.
//
// Keys are scoped to a run ID so that entries written by one process are
// never read by the next one. Call Purge before exiting to remove them.
type RedisCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	runID     string
}

// RedisConfig holds configuration for the Redis cache.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       int    // Key TTL in seconds (0 = keys live until purged)
	KeyPrefix string // Prefix for all keys (default: "phrasebook:")
	RunID     string // Process run ID (default: random UUID)
}

// NewRedisCache connects to Redis and creates a cache for this run.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisCacheFromClient(client, cfg.TTL, cfg.KeyPrefix, cfg.RunID), nil
}

// NewRedisCacheFromClient creates a RedisCache from an existing Redis client.
func NewRedisCacheFromClient(client *redis.Client, ttlSeconds int, keyPrefix, runID string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "phrasebook:"
	}
	if runID == "" {
		runID = uuid.NewString()
	}

	ttl := time.Duration(ttlSeconds) * time.Second
	if ttlSeconds <= 0 {
		ttl = 0
	}

	return &RedisCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
		runID:     runID,
	}
}

// Lookup retrieves a translation from Redis. Backend errors count as a miss.
func (c *RedisCache) Lookup(phrase string) (string, bool) {
	val, err := c.client.Get(context.Background(), c.key(phrase)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// Insert stores a translation in Redis.
func (c *RedisCache) Insert(phrase, translation string) error {
	if err := c.client.Set(context.Background(), c.key(phrase), translation, c.ttl).Err(); err != nil {
		return &CacheError{Message: "redis set failed", Cause: err}
	}
	return nil
}

// Purge deletes every key written during this run.
func (c *RedisCache) Purge(ctx context.Context) error {
	pattern := c.keyPrefix + c.runID + ":*"

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return &CacheError{Message: "redis scan failed", Cause: err}
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
				return &CacheError{Message: "redis delete failed", Cause: err}
			}
		}

		if next == 0 {
			return nil
		}
		cursor = next
	}
}

// RunID returns the run ID scoping this cache's keys.
func (c *RedisCache) RunID() string {
	return c.runID
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping tests the Redis connection.
func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}

func (c *RedisCache) key(phrase string) string {
	return c.keyPrefix + c.runID + ":" + hashKey(phrase)
}

// hashKey keeps keys short and free of arbitrary user text.
func hashKey(phrase string) string {
	sum := sha256.Sum256([]byte(phrase))
	return hex.EncodeToString(sum[:])
}

// Verify RedisCache implements PhraseCache
var _ PhraseCache = (*RedisCache)(nil)
