// Package cache provides a Redis read-through cache in front of the resource
// catalog. Cache failures never fail a lookup; they fall through to the source.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/workspace-booking/internal/metrics"
	"github.com/Shivanand-hulikatti/workspace-booking/internal/model"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "booking:catalog:"

// Source is the catalog being cached.
type Source interface {
	Get(ctx context.Context, id int64) (*model.Resource, error)
	ListActive(ctx context.Context, f model.ResourceFilter) ([]model.Resource, error)
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Catalog is a read-through cache over a Source.
type Catalog struct {
	source Source
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

// NewCatalog wraps source with a Redis cache whose entries live for ttl.
func NewCatalog(source Source, client *redis.Client, ttl time.Duration, log *zap.Logger) *Catalog {
	return &Catalog{source: source, client: client, ttl: ttl, log: log}
}

// Get returns the resource with id. Not-found results are not cached.
func (c *Catalog) Get(ctx context.Context, id int64) (*model.Resource, error) {
	key := fmt.Sprintf("%sresource:%d", keyPrefix, id)

	var cached model.Resource
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	res, err := c.source.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, res)
	return res, nil
}

// ListActive returns active resources matching f.
func (c *Catalog) ListActive(ctx context.Context, f model.ResourceFilter) ([]model.Resource, error) {
	key := listKey(f)

	var cached []model.Resource
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	list, err := c.source.ListActive(ctx, f)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, list)
	return list, nil
}

// Invalidate drops every cached catalog entry.
func (c *Catalog) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan catalog keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete catalog keys: %w", err)
	}
	return nil
}

func (c *Catalog) load(ctx context.Context, key string, dst any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.IncCatalogCache("miss")
		return false
	}
	if err != nil {
		c.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		metrics.IncCatalogCache("error")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("cached catalog entry unreadable", zap.String("key", key), zap.Error(err))
		metrics.IncCatalogCache("error")
		return false
	}
	metrics.IncCatalogCache("hit")
	return true
}

func (c *Catalog) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("json marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("redis set failed", zap.String("key", key), zap.Error(err))
	}
}

func listKey(f model.ResourceFilter) string {
	return fmt.Sprintf("%slist:%s|%s|%d|%g",
		keyPrefix, f.Kind, strings.ToLower(strings.TrimSpace(f.Location)), f.MinCapacity, f.MaxPrice)
}
