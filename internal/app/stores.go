package app

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/tekstil/internal/exports"
	"github.com/odyssey-erp/tekstil/internal/platform/objectstore"
)

const storePrefix = "tekstil"

// NewArtifactStore selects the object store named by ARTIFACT_STORE.
func NewArtifactStore(ctx context.Context, cfg *Config, client *redis.Client) (objectstore.Store, error) {
	switch cfg.ArtifactStore {
	case "s3":
		return objectstore.NewS3Store(ctx, objectstore.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Prefix:    storePrefix,
		})
	default:
		if client == nil {
			return nil, errors.New("redis artifact store requires a redis connection")
		}
		return objectstore.NewRedisStore(client, storePrefix, cfg.ArtifactTTL), nil
	}
}

// NewExportStore prefers Postgres and falls back to redis, then to process
// memory.
func NewExportStore(cfg *Config, pool *pgxpool.Pool, client *redis.Client) exports.Store {
	switch {
	case pool != nil:
		return exports.NewRepository(pool)
	case client != nil:
		return exports.NewRedisRepository(client, storePrefix, cfg.ArtifactTTL)
	default:
		return exports.NewMemoryRepository()
	}
}
