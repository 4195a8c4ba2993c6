package rdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vlatan/anime-studio/internal/config"
)

type Service struct {
	Client *redis.Client
}

// Produce new Redis service
func New(cfg *config.Config) (*Service, error) {

	if cfg == nil {
		return nil, errors.New("unable to create Redis service with nil config")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Username: cfg.RedisUsername,
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	return &Service{rdb}, nil
}

// Store hashmap
func (rs *Service) PipeHset(ctx context.Context, ttl time.Duration, key string, values ...any) error {

	pipe := rs.Client.Pipeline()
	if err := pipe.HSet(ctx, key, values...).Err(); err != nil {
		return err
	}

	if err := pipe.Expire(ctx, key, ttl).Err(); err != nil {
		return err
	}

	_, err := pipe.Exec(ctx)
	return err
}

// Check if the Redis client is healthy
func (rs *Service) Health(ctx context.Context) error {

	if _, err := rs.Client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	return nil
}

// Close the underlying connection
func (rs *Service) Close() error {
	return rs.Client.Close()
}
