package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notekeeper/notes/internal/slogging"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = errors.New("cache miss")

// RedisConfig holds the configuration for Redis connection
type RedisConfig struct {
	// URL in redis://[:password@]host:port/db form
	URL string
	// Tracing instruments the client with OpenTelemetry tracing and metrics
	Tracing bool
}

// RedisDB represents a Redis database connection
type RedisDB struct {
	client *redis.Client
	addr   string
	db     int
}

// NewRedisDB creates a new Redis database connection
func NewRedisDB(cfg RedisConfig) (*RedisDB, error) {
	logger := slogging.Get()

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.ConnMaxLifetime = time.Hour
	opts.ConnMaxIdleTime = 30 * time.Minute

	logger.Debug("Initializing Redis connection to %s DB=%d", opts.Addr, opts.DB)
	client := redis.NewClient(opts)

	if cfg.Tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			return nil, fmt.Errorf("failed to instrument redis tracing: %w", err)
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			return nil, fmt.Errorf("failed to instrument redis metrics: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis: %v", err)
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	logger.Debug("Redis connection established successfully")

	return &RedisDB{client: client, addr: opts.Addr, db: opts.DB}, nil
}

// Close closes the Redis connection
func (db *RedisDB) Close() error {
	logger := slogging.Get()
	logger.Debug("Closing Redis connection to %s DB=%d", db.addr, db.db)

	if db.client == nil {
		return nil
	}
	if err := db.client.Close(); err != nil {
		logger.Error("Error closing Redis connection: %v", err)
		return err
	}
	return nil
}

// GetClient returns the Redis client
func (db *RedisDB) GetClient() *redis.Client {
	return db.client
}

// Ping checks if the Redis connection is alive
func (db *RedisDB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx).Err()
}

// LogStats logs statistics about the Redis connection pool
func (db *RedisDB) LogStats() {
	poolStats := db.client.PoolStats()
	slogging.Get().Debug("Redis connection pool stats: hits=%d, misses=%d, timeouts=%d, totalConns=%d, idleConns=%d, staleConns=%d",
		poolStats.Hits,
		poolStats.Misses,
		poolStats.Timeouts,
		poolStats.TotalConns,
		poolStats.IdleConns,
		poolStats.StaleConns,
	)
}

// Set sets a key-value pair with expiration
func (db *RedisDB) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return db.client.Set(ctx, key, value, expiration).Err()
}

// Get gets a value by key, returning ErrCacheMiss when absent
func (db *RedisDB) Get(ctx context.Context, key string) (string, error) {
	result, err := db.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return result, err
}

// Del deletes keys
func (db *RedisDB) Del(ctx context.Context, keys ...string) error {
	return db.client.Del(ctx, keys...).Err()
}

// Watch runs fn in an optimistic transaction; commands queued through
// tx.TxPipelined fail with redis.TxFailedErr if any of keys changed after
// the watch started
func (db *RedisDB) Watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	return db.client.Watch(ctx, fn, keys...)
}

// Bump increments each version key, refreshes its expiration and deletes
// the data keys in one MULTI/EXEC
func (db *RedisDB) Bump(ctx context.Context, expiration time.Duration, versionKeys []string, dataKeys ...string) error {
	pipe := db.client.TxPipeline()
	for _, key := range versionKeys {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, expiration)
	}
	if len(dataKeys) > 0 {
		pipe.Del(ctx, dataKeys...)
	}
	_, err := pipe.Exec(ctx)
	return err
}
