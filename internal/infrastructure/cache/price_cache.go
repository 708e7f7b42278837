// Package cache provides a Redis read-through cache for price rows.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"inventra/internal/core/id"
	"inventra/internal/domain/registers/prices"
)

const (
	defaultKeyPrefix = "inventra:prices"
	DefaultTTL       = 10 * time.Minute
	scanBatch        = 100
)

var _ prices.Cache = (*PriceCache)(nil)

// PriceCache stores the price rows of a (product, branch) pair as one JSON value.
type PriceCache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

// Option configures PriceCache.
type Option func(*PriceCache)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *PriceCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces keys, e.g. per environment.
func WithKeyPrefix(prefix string) Option {
	return func(c *PriceCache) {
		if prefix != "" {
			c.prefix = strings.TrimSuffix(prefix, ":")
		}
	}
}

// NewPriceCache creates a price cache over client.
func NewPriceCache(client redis.UniversalClient, opts ...Option) *PriceCache {
	c := &PriceCache{client: client, ttl: DefaultTTL, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *PriceCache) key(productID, branchID id.ID) string {
	return c.prefix + ":" + productID.String() + ":" + branchID.String()
}

func (c *PriceCache) versionKey(productID id.ID) string {
	return c.prefix + ":ver:" + productID.String()
}

// Get returns the cached rows. ok is false on a miss.
func (c *PriceCache) Get(ctx context.Context, productID, branchID id.ID) ([]prices.Price, bool, error) {
	payload, err := c.client.Get(ctx, c.key(productID, branchID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get prices: %w", err)
	}

	var rows []prices.Price
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, false, fmt.Errorf("decode prices: %w", err)
	}
	return rows, true, nil
}

// Version returns the invalidation counter of productID, 0 before the first
// invalidation.
func (c *PriceCache) Version(ctx context.Context, productID id.ID) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(productID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get price version: %w", err)
	}
	return v, nil
}

// Set caches rows for the pair unless the product was invalidated after
// version was read. An empty slice is cached too.
func (c *PriceCache) Set(ctx context.Context, productID, branchID id.ID, version int64, rows []prices.Price) error {
	if rows == nil {
		rows = []prices.Price{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode prices: %w", err)
	}

	verKey := c.versionKey(productID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(productID, branchID), raw, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if err == redis.TxFailedErr {
		// invalidated between the check and the write
		return nil
	}
	if err != nil {
		return fmt.Errorf("set prices: %w", err)
	}
	return nil
}

// Invalidate drops the pairs of productID with branchIDs, or every cached
// branch of the product when none are given. The product version is bumped
// in the same transaction.
func (c *PriceCache) Invalidate(ctx context.Context, productID id.ID, branchIDs ...id.ID) error {
	keys := make([]string, 0, len(branchIDs))
	for _, b := range branchIDs {
		keys = append(keys, c.key(productID, b))
	}

	if len(branchIDs) == 0 {
		pattern := c.prefix + ":" + productID.String() + ":*"
		iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("scan prices: %w", err)
		}
	}

	verKey := c.versionKey(productID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, verKey)
		// outlives any entry written under the previous version
		pipe.Expire(ctx, verKey, 2*c.ttl)
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate prices: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (c *PriceCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
