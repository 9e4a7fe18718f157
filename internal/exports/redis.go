package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisTransitionAttempts = 5

// RedisRepository shares export rows between the API and the worker when no
// database is configured. Rows expire after ttl.
type RedisRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// redisRow carries the fields hidden from the JSON API.
type redisRow struct {
	Export
	ArtifactKey string `json:"artifact_key"`
}

// NewRedisRepository constructs a redis-backed repository.
func NewRedisRepository(client *redis.Client, prefix string, ttl time.Duration) *RedisRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRepository{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisRepository) key(id uuid.UUID) string {
	return r.prefix + ":export:" + id.String()
}

// Insert records a new export.
func (r *RedisRepository) Insert(ctx context.Context, e Export) error {
	payload, err := json.Marshal(redisRow{Export: e, ArtifactKey: e.ArtifactKey})
	if err != nil {
		return err
	}
	ok, err := r.client.SetNX(ctx, r.key(e.ID), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	if !ok {
		return fmt.Errorf("insert export: %s already exists", e.ID)
	}
	return nil
}

// Get loads one export.
func (r *RedisRepository) Get(ctx context.Context, id uuid.UUID) (Export, error) {
	return r.load(ctx, r.client, id)
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *RedisRepository) load(ctx context.Context, c getter, id uuid.UUID) (Export, error) {
	payload, err := c.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Export{}, ErrNotFound
		}
		return Export{}, fmt.Errorf("get export: %w", err)
	}
	var row redisRow
	if err := json.Unmarshal(payload, &row); err != nil {
		return Export{}, fmt.Errorf("decode export: %w", err)
	}
	e := row.Export
	e.ArtifactKey = row.ArtifactKey
	return e, nil
}

// Transition moves an export to status under WATCH and applies mutate.
func (r *RedisRepository) Transition(ctx context.Context, id uuid.UUID, to Status, at time.Time, mutate func(*Export)) (Export, error) {
	key := r.key(id)
	for attempt := 0; attempt < redisTransitionAttempts; attempt++ {
		var out Export
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			e, err := r.load(ctx, tx, id)
			if err != nil {
				return err
			}
			if !CanTransition(e.Status, to) {
				return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, e.Status, to)
			}
			e.Status = to
			e.UpdatedAt = at
			if mutate != nil {
				mutate(&e)
			}
			payload, err := json.Marshal(redisRow{Export: e, ArtifactKey: e.ArtifactKey})
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, r.ttl)
				return nil
			})
			if err != nil {
				return err
			}
			out = e
			return nil
		}, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return out, err
	}
	return Export{}, fmt.Errorf("transition export %s: too much contention", id)
}
