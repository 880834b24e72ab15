package storage

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"opsboard/domain"
)

// RowStore is the record store surface used by the dashboard.
type RowStore interface {
	ListRows(ctx context.Context, table int) ([]domain.Row, error)
	CreateRow(ctx context.Context, table int, fields map[string]any) (domain.Row, error)
	UpdateRow(ctx context.Context, table, rowID int, fields map[string]any) (domain.Row, error)
}

// Cache wraps a RowStore with Redis-backed caching of table listings.
type Cache struct {
	base  RowStore
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching RowStore using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base RowStore, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListRows(ctx context.Context, table int) ([]domain.Row, error) {
	if rows, ok := c.loadRows(ctx, table); ok {
		return rows, nil
	}

	rows, err := c.base.ListRows(ctx, table)
	if err != nil {
		return nil, err
	}

	c.storeRows(ctx, table, rows)
	return rows, nil
}

func (c *Cache) CreateRow(ctx context.Context, table int, fields map[string]any) (domain.Row, error) {
	row, err := c.base.CreateRow(ctx, table, fields)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, table)
	return row, nil
}

func (c *Cache) UpdateRow(ctx context.Context, table, rowID int, fields map[string]any) (domain.Row, error) {
	row, err := c.base.UpdateRow(ctx, table, rowID, fields)
	if err != nil {
		return nil, err
	}
	c.evict(ctx, table)
	return row, nil
}

func (c *Cache) loadRows(ctx context.Context, table int) ([]domain.Row, bool) {
	if c.redis == nil || c.ttl == 0 {
		return nil, false
	}
	data, err := c.redis.Get(ctx, rowsCacheKey(table)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, rowsCacheKey(table)).Err()
		}
		return nil, false
	}
	var rows []domain.Row
	if err := json.Unmarshal(data, &rows); err != nil {
		_ = c.redis.Del(ctx, rowsCacheKey(table)).Err()
		return nil, false
	}
	return rows, true
}

func (c *Cache) storeRows(ctx context.Context, table int, rows []domain.Row) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, rowsCacheKey(table), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, table int) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, rowsCacheKey(table)).Result()
}

func rowsCacheKey(table int) string {
	return "rows:" + strconv.Itoa(table)
}
