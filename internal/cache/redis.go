package cache

import (
	"context"
	"time"

	"github.com/nhankey2000/auto-post/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Config holds the Redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient wraps redis.Client with the pool settings used across the service
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient connects and pings. An empty Addr defaults to localhost:6379.
func NewRedisClient(cfg Config) (*RedisClient, error) {
	if cfg.Addr == "" {
		cfg.Addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.Error("Failed to connect to Redis", zap.String("address", cfg.Addr), zap.Error(err))
		client.Close()
		return nil, err
	}

	logger.Log.Info("Redis client connected", zap.String("address", cfg.Addr))
	return &RedisClient{client: client}, nil
}

// NewFromClient wraps an existing client
func NewFromClient(client *redis.Client) *RedisClient {
	return &RedisClient{client: client}
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// Ping tests the Redis connection
func (rc *RedisClient) Ping(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// SetNX stores value only if key does not exist yet
func (rc *RedisClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	return rc.client.SetNX(ctx, key, value, ttl).Result()
}

// Del deletes one or more keys from Redis
func (rc *RedisClient) Del(ctx context.Context, keys ...string) error {
	return rc.client.Del(ctx, keys...).Err()
}
