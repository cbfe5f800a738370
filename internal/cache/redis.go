// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions holds the connection settings for the Redis backend.
type RedisOptions struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// DefaultRedisOptions points at a local Redis with no password.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Address:   "localhost:6379",
		KeyPrefix: "surveydict:",
	}
}

// RedisCache stores entries in Redis so several machines can share fetched
// survey definitions.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache opens a client for the given options. The connection is lazy;
// use Ping to verify it.
func NewRedisCache(opts RedisOptions) *RedisCache {
	if opts.Address == "" {
		opts.Address = DefaultRedisOptions().Address
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Address,
			Password: opts.Password,
			DB:       opts.DB,
		}),
		prefix: opts.KeyPrefix,
	}
}

// Ping tests connectivity for redis (PONG should be returned)
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
