package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultCacheTTL = 5 * time.Minute
	evictTimeout    = time.Second
)

// CachedStore serves Get from Redis and forwards everything else to the
// wrapped Store. Update and Delete drop the cached entry unless the wrapped
// store cleanly reports the id as missing: a failed write may still have
// landed. Redis failures are logged and never fail the call.
type CachedStore struct {
	Store

	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{Store: next, client: client, ttl: ttl, log: log}
}

func (c *CachedStore) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return c.Store.Ping(ctx)
}

func (c *CachedStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	key := cacheKey(id)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var p Product
		if err := json.Unmarshal(data, &p); err == nil {
			return p, true, nil
		}
		c.log.Warn("cached product corrupt", zap.Int64("id", id))
	case !errors.Is(err, redis.Nil):
		c.log.Warn("cache get failed", zap.Error(err), zap.Int64("id", id))
	}

	p, ok, err := c.Store.Get(ctx, id)
	if err != nil || !ok {
		return p, ok, err
	}

	c.set(ctx, p)
	return p, true, nil
}

func (c *CachedStore) Update(ctx context.Context, id int64, patch ProductPatch) (Product, bool, error) {
	p, ok, err := c.Store.Update(ctx, id, patch)
	if err != nil || ok {
		c.evict(ctx, id)
	}
	return p, ok, err
}

func (c *CachedStore) Delete(ctx context.Context, id int64) (bool, error) {
	ok, err := c.Store.Delete(ctx, id)
	if err != nil || ok {
		c.evict(ctx, id)
	}
	return ok, err
}

func (c *CachedStore) set(ctx context.Context, p Product) {
	data, err := json.Marshal(p)
	if err != nil {
		return
	}

	jitter := time.Duration(rand.Int64N(int64(c.ttl/5) + 1))
	if err := c.client.Set(ctx, cacheKey(p.ID), data, c.ttl+jitter).Err(); err != nil {
		c.log.Warn("cache set failed", zap.Error(err), zap.Int64("id", p.ID))
	}
}

// evict outlives the caller's context so a write cancelled mid-flight still
// drops the entry.
func (c *CachedStore) evict(ctx context.Context, id int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), evictTimeout)
	defer cancel()

	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		c.log.Warn("cache delete failed", zap.Error(err), zap.Int64("id", id))
	}
}

func cacheKey(id int64) string {
	return fmt.Sprintf("catalog:product:%d", id)
}
