package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qdadoc/internal/config"
	"qdadoc/internal/model"
)

const keyPrefix = "doc:"

// Redis caches documents as JSON under doc:<id> with a fixed TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ DocumentCache = (*Redis)(nil)

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Dial connects to Redis and verifies it with PING.
func Dial(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedis(rdb, time.Duration(cfg.TTLSec)*time.Second), nil
}

// Close releases the underlying client.
func (c *Redis) Close() error {
	return c.rdb.Close()
}

func (c *Redis) Get(ctx context.Context, id string) (*model.Document, bool, error) {
	b, err := c.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var d model.Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, false, fmt.Errorf("decode cached document: %w", err)
	}
	return &d, true, nil
}

func (c *Redis) Set(ctx context.Context, doc *model.Document) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPrefix+doc.ID, b, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, id string) error {
	return c.rdb.Del(ctx, keyPrefix+id).Err()
}
