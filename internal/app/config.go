package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/tekstil/internal/platform/cache"
	"github.com/odyssey-erp/tekstil/internal/platform/db"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv            string        `envconfig:"APP_ENV" default:"development"`
	AppAddr           string        `envconfig:"APP_ADDR" default:":8080"`
	AppReadTimeout    time.Duration `envconfig:"APP_READ_TIMEOUT" default:"15s"`
	AppWriteTimeout   time.Duration `envconfig:"APP_WRITE_TIMEOUT" default:"60s"`
	AppRequestTimeout time.Duration `envconfig:"APP_REQUEST_TIMEOUT" default:"60s"`
	RateLimitPerMin   int           `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	BackendURL          string        `envconfig:"BACKEND_URL" required:"true"`
	BackendTimeout      time.Duration `envconfig:"BACKEND_TIMEOUT" default:"30s"`
	BackendServiceToken string        `envconfig:"BACKEND_SERVICE_TOKEN"`

	ReportWorkers  int `envconfig:"REPORT_WORKERS" default:"5"`
	ReportPageSize int `envconfig:"REPORT_PAGE_SIZE" default:"20"`

	PGDSN      string `envconfig:"PG_DSN"`
	PGMaxConns int32  `envconfig:"PG_MAX_CONNS" default:"10"`

	RedisAddr       string        `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPassword   string        `envconfig:"REDIS_PASSWORD"`
	RedisDB         int           `envconfig:"REDIS_DB" default:"0"`
	SessionCacheTTL time.Duration `envconfig:"SESSION_CACHE_TTL" default:"30m"`

	GotenbergURL     string        `envconfig:"GOTENBERG_URL" default:"http://127.0.0.1:3000"`
	GotenbergTimeout time.Duration `envconfig:"GOTENBERG_TIMEOUT" default:"60s"`

	ArtifactStore string        `envconfig:"ARTIFACT_STORE" default:"redis"`
	ArtifactTTL   time.Duration `envconfig:"ARTIFACT_TTL" default:"24h"`
	S3Endpoint    string        `envconfig:"S3_ENDPOINT"`
	S3Region      string        `envconfig:"S3_REGION" default:"auto"`
	S3Bucket      string        `envconfig:"S3_BUCKET"`
	S3AccessKey   string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey   string        `envconfig:"S3_SECRET_KEY"`

	WorkerConcurrency    int           `envconfig:"WORKER_CONCURRENCY" default:"5"`
	IdempotencyRetention time.Duration `envconfig:"IDEMPOTENCY_RETENTION" default:"168h"`
}

// LoadConfig reads an optional .env file and then configuration from
// environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if cfg.BackendURL == "" {
		return nil, errors.New("BACKEND_URL must be provided")
	}
	switch cfg.ArtifactStore {
	case "redis":
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, errors.New("S3_BUCKET must be provided when ARTIFACT_STORE=s3")
		}
	default:
		return nil, fmt.Errorf("unknown ARTIFACT_STORE %q", cfg.ArtifactStore)
	}
	if cfg.ReportWorkers <= 0 {
		return nil, errors.New("REPORT_WORKERS must be positive")
	}
	return &cfg, nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// Postgres returns pool options for PG_DSN. appName tags the connections in
// pg_stat_activity.
func (c *Config) Postgres(appName string) db.Options {
	return db.Options{DSN: c.PGDSN, MaxConns: c.PGMaxConns, MaxConnIdleTime: 5 * time.Minute, AppName: appName}
}

// Redis returns the connection options of the shared redis instance.
func (c *Config) Redis() cache.Options {
	return cache.Options{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// AsynqRedis returns the same instance in asynq's option type.
func (c *Config) AsynqRedis() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}
