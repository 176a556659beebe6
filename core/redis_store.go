package core

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is a Redis-backed implementation of the Memory interface.
// It lets multiple processes (or a restarted process) share the cart
// snapshot cache. Keys are namespaced to avoid collisions with other
// tenants of the same Redis instance.
type RedisStore struct {
	client    *redis.Client
	namespace string
	logger    Logger
}

// RedisStoreOptions configures the Redis store
type RedisStoreOptions struct {
	RedisURL  string
	Namespace string // Key namespace, defaults to DefaultRedisNamespace
	Logger    Logger // Optional logger
}

// NewRedisStore creates a Redis-backed store and verifies connectivity.
func NewRedisStore(opts RedisStoreOptions) (*RedisStore, error) {
	if opts.RedisURL == "" {
		return nil, fmt.Errorf("%w: redis URL", ErrMissingConfiguration)
	}
	if opts.Namespace == "" {
		opts.Namespace = DefaultRedisNamespace
	}
	if opts.Logger == nil {
		opts.Logger = &NoOpLogger{}
	}

	redisOpts, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis URL: %v", ErrInvalidConfiguration, err)
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	opts.Logger.Debug("Redis snapshot store initialized", map[string]interface{}{
		"operation": "redis_init",
		"namespace": opts.Namespace,
	})

	return &RedisStore{
		client:    client,
		namespace: opts.Namespace,
		logger:    opts.Logger,
	}, nil
}

func (r *RedisStore) key(key string) string {
	return r.namespace + ":" + key
}

// Get retrieves a value. A missing key returns "" with no error so the
// caller can treat it as a cache miss, mirroring MemoryStore.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// Set stores a value with optional TTL (ttl <= 0 means no expiry)
func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes a value
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

// Exists checks if a key exists
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", key, err)
	}
	return n > 0, nil
}

// Close releases the underlying Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
