package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-pipeline-be/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rag:answer"

// RedisAnswerCache versions keys with a per-project generation counter, so
// invalidating a project is one INCR instead of a key scan.
type RedisAnswerCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.AnswerCache = (*RedisAnswerCache)(nil)

func NewRedisAnswerCache(rdb *redis.Client, ttl time.Duration) *RedisAnswerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisAnswerCache{rdb: rdb, ttl: ttl}
}

func generationKey(projectId string) string {
	return fmt.Sprintf("%s:gen:%s", keyPrefix, projectId)
}

func (c *RedisAnswerCache) generation(ctx context.Context, projectId string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(projectId)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisAnswerCache) entryKey(ctx context.Context, projectId, key string) (string, error) {
	gen, err := c.generation(ctx, projectId)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%d:%s", keyPrefix, projectId, gen, key), nil
}

func (c *RedisAnswerCache) Get(ctx context.Context, projectId, key string) ([]byte, bool, error) {
	k, err := c.entryKey(ctx, projectId, key)
	if err != nil {
		return nil, false, err
	}
	val, err := c.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisAnswerCache) Set(ctx context.Context, projectId, key string, value []byte) error {
	k, err := c.entryKey(ctx, projectId, key)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, k, value, c.ttl).Err()
}

func (c *RedisAnswerCache) InvalidateProject(ctx context.Context, projectId string) error {
	return c.rdb.Incr(ctx, generationKey(projectId)).Err()
}

// NewRedisClient parses url (redis://...) or falls back to a bare address.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
