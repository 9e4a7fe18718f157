package objectstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps artifacts as redis hashes with an expiry.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore constructs a redis-backed store.
func NewRedisStore(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":artifact:" + key
}

// Put writes obj and resets its expiry.
func (s *RedisStore) Put(ctx context.Context, obj Object) error {
	k := s.key(obj.Key)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, "content_type", obj.ContentType, "data", obj.Data)
	pipe.Expire(ctx, k, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store artifact %s: %w", obj.Key, err)
	}
	return nil
}

// Get reads an artifact.
func (s *RedisStore) Get(ctx context.Context, key string) (Object, error) {
	values, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Object{}, ErrNotFound
		}
		return Object{}, fmt.Errorf("load artifact %s: %w", key, err)
	}
	data, ok := values["data"]
	if !ok {
		return Object{}, ErrNotFound
	}
	return Object{Key: key, ContentType: values["content_type"], Data: []byte(data)}, nil
}
