// Package catalog exposes the product side tables (known materials and
// categories) used to constrain metadata filter extraction. Values are always
// fetched fresh so new catalog entries are picked up without a redeploy.
package catalog

import (
	"context"
	"sort"

	"github.com/redis/go-redis/v9"

	errx "github.com/depato-store/shopper-assistant/internal/core/error"
)

const (
	materialsKey  = "catalog:materials"
	categoriesKey = "catalog:categories"
)

// Catalog lists the current universe of product metadata values.
type Catalog interface {
	Materials(ctx context.Context) ([]string, error)
	Categories(ctx context.Context) ([]string, error)
}

// RedisCatalog reads the side tables from Redis sets populated by the
// ingestion job.
type RedisCatalog struct {
	rdb redis.Cmdable
}

func NewRedisCatalog(rdb redis.Cmdable) *RedisCatalog {
	return &RedisCatalog{rdb: rdb}
}

func (c *RedisCatalog) Materials(ctx context.Context) ([]string, error) {
	return c.members(ctx, materialsKey)
}

func (c *RedisCatalog) Categories(ctx context.Context) ([]string, error) {
	return c.members(ctx, categoriesKey)
}

func (c *RedisCatalog) members(ctx context.Context, key string) ([]string, error) {
	vals, err := c.rdb.SMembers(ctx, key).Result()
	if err != nil {
		return nil, errx.WrapRedis(err)
	}
	// sets are unordered; keep the prompt stable across calls
	sort.Strings(vals)
	return vals, nil
}

// Add inserts values into one of the side tables. Used by the ingestion job.
func (c *RedisCatalog) Add(ctx context.Context, materials, categories []string) error {
	if len(materials) > 0 {
		if err := c.rdb.SAdd(ctx, materialsKey, toAny(materials)...).Err(); err != nil {
			return errx.WrapRedis(err)
		}
	}
	if len(categories) > 0 {
		if err := c.rdb.SAdd(ctx, categoriesKey, toAny(categories)...).Err(); err != nil {
			return errx.WrapRedis(err)
		}
	}
	return nil
}

func toAny(vals []string) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

var _ Catalog = (*RedisCatalog)(nil)

// StaticCatalog serves a fixed value set. Used in tests and demos without a
// populated Redis instance.
type StaticCatalog struct {
	MaterialValues []string
	CategoryValues []string
}

func (c *StaticCatalog) Materials(ctx context.Context) ([]string, error) {
	return c.MaterialValues, nil
}

func (c *StaticCatalog) Categories(ctx context.Context) ([]string, error) {
	return c.CategoryValues, nil
}

var _ Catalog = (*StaticCatalog)(nil)
