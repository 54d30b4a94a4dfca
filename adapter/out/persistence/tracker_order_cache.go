package persistence

import (
	"context"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/service/order"
	"tracker_server/pkg/cache"
	"tracker_server/pkg/logger"

	"github.com/google/uuid"
)

const (
	summaryKeyPrefix = "orders:summary:"
	listKeyPrefix    = "orders:list:"
)

// RedisOrderCache caches per-user dashboard summaries and the unfiltered
// first order page. Cache failures are logged and treated as misses.
type RedisOrderCache struct {
	cache *cache.RedisCache
	ttl   time.Duration
	log   *logger.Logger
}

// NewRedisOrderCache creates a new order cache.
func NewRedisOrderCache(c *cache.RedisCache, ttl time.Duration) order.OrderCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisOrderCache{
		cache: c,
		ttl:   ttl,
		log:   logger.Default().WithField("component", "order_cache"),
	}
}

func (c *RedisOrderCache) GetSummary(ctx context.Context, userID uuid.UUID) (*domain.OrderSummary, bool) {
	var summary domain.OrderSummary
	found, err := c.cache.GetJSON(ctx, summaryKeyPrefix+userID.String(), &summary)
	if err != nil {
		c.log.WithError(err).Warn("summary cache read failed")
		return nil, false
	}
	if !found {
		return nil, false
	}
	return &summary, true
}

func (c *RedisOrderCache) SetSummary(ctx context.Context, userID uuid.UUID, summary *domain.OrderSummary) {
	if err := c.cache.SetJSON(ctx, summaryKeyPrefix+userID.String(), summary, c.ttl); err != nil {
		c.log.WithError(err).Warn("summary cache write failed")
	}
}

func (c *RedisOrderCache) GetList(ctx context.Context, userID uuid.UUID) ([]*domain.Order, int, bool) {
	var entry cachedList
	found, err := c.cache.GetJSON(ctx, listKeyPrefix+userID.String(), &entry)
	if err != nil {
		c.log.WithError(err).Warn("list cache read failed")
		return nil, 0, false
	}
	if !found {
		return nil, 0, false
	}
	return entry.Orders, entry.Total, true
}

func (c *RedisOrderCache) SetList(ctx context.Context, userID uuid.UUID, orders []*domain.Order, total int) {
	entry := cachedList{Orders: orders, Total: total}
	if err := c.cache.SetJSON(ctx, listKeyPrefix+userID.String(), entry, c.ttl); err != nil {
		c.log.WithError(err).Warn("list cache write failed")
	}
}

func (c *RedisOrderCache) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	if err := c.cache.Delete(ctx, summaryKeyPrefix+userID.String(), listKeyPrefix+userID.String()); err != nil {
		c.log.WithError(err).Warn("order cache invalidation failed")
	}
}

type cachedList struct {
	Orders []*domain.Order `json:"orders"`
	Total  int             `json:"total"`
}
