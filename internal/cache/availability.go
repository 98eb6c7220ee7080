package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"turnero/internal/domain"
)

const DefaultTTL = time.Minute

// AvailabilityCache keeps computed slot lists in redis, one hash per
// business and day with a field per service (0 = all services). The whole
// hash is dropped when any write touches the day, so a cached day can
// never outlive the booking that invalidated it by more than one round
// trip. It is an accelerator only: every failure degrades to a miss.
type AvailabilityCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *slog.Logger
}

func NewAvailabilityCache(rdb *redis.Client, ttl time.Duration, log *slog.Logger) *AvailabilityCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &AvailabilityCache{
		rdb: rdb,
		ttl: ttl,
		log: log.With(slog.String("component", "cache.availability")),
	}
}

func dayKey(businessID int64, date time.Time) string {
	return fmt.Sprintf("turnero:avail:%d:%s", businessID, domain.DateOf(date).Format("2006-01-02"))
}

func (c *AvailabilityCache) GetDay(ctx context.Context, businessID int64, date time.Time, serviceID int64) ([]domain.Slot, bool) {
	raw, err := c.rdb.HGet(ctx, dayKey(businessID, date), strconv.FormatInt(serviceID, 10)).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("cache read failed", slog.Any("err", err), slog.Int64("business_id", businessID))
		}
		return nil, false
	}

	var slots []domain.Slot
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		c.log.Warn("cache entry corrupt", slog.Any("err", err), slog.Int64("business_id", businessID))
		return nil, false
	}
	return slots, true
}

func (c *AvailabilityCache) SetDay(ctx context.Context, businessID int64, date time.Time, serviceID int64, slots []domain.Slot) {
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	key := dayKey(businessID, date)
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, strconv.FormatInt(serviceID, 10), raw)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn("cache write failed", slog.Any("err", err), slog.Int64("business_id", businessID))
	}
}

func (c *AvailabilityCache) InvalidateDay(ctx context.Context, businessID int64, date time.Time) {
	if err := c.rdb.Del(ctx, dayKey(businessID, date)).Err(); err != nil {
		c.log.Warn("cache invalidate failed", slog.Any("err", err), slog.Int64("business_id", businessID))
	}
}
