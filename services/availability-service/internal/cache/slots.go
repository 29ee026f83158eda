package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/fait-coop/scheduling/services/availability-service/internal/availability"
	"github.com/fait-coop/scheduling/services/availability-service/internal/model"
	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const DefaultTTL = time.Minute

// SlotCache stores resolved slots in Redis. Each provider has a generation
// counter that is part of every slot key; Invalidate bumps it, orphaning the
// old entries until their TTL expires. Redis errors are logged and treated
// as misses.
type SlotCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewSlotCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *SlotCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SlotCache{rdb: rdb, ttl: ttl, logger: logger}
}

type entry struct {
	Date     string      `json:"date"`
	Time     model.Clock `json:"time"`
	Duration int         `json:"duration"`
}

func (c *SlotCache) Lookup(ctx context.Context, b availability.Bounds) ([]model.Slot, int64, bool) {
	gen, err := c.generation(ctx, b.ProviderID)
	if err != nil {
		c.logger.Warn("slot cache unavailable", "provider_id", b.ProviderID, "err", err)
		return nil, -1, false
	}

	raw, err := c.rdb.Get(ctx, slotsKey(b, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, gen, false
	}
	if err != nil {
		c.logger.Warn("slot cache read failed", "provider_id", b.ProviderID, "err", err)
		return nil, gen, false
	}
	slots, err := decodeSlots(raw)
	if err != nil {
		c.logger.Warn("dropping corrupt slot cache entry", "provider_id", b.ProviderID, "err", err)
		return nil, gen, false
	}
	return slots, gen, true
}

func (c *SlotCache) Store(ctx context.Context, b availability.Bounds, generation int64, slots []model.Slot) {
	if generation < 0 {
		return
	}
	raw, err := encodeSlots(slots)
	if err != nil {
		c.logger.Warn("slot cache encode failed", "provider_id", b.ProviderID, "err", err)
		return
	}
	if err := c.rdb.Set(ctx, slotsKey(b, generation), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("slot cache write failed", "provider_id", b.ProviderID, "err", err)
	}
}

// Invalidate drops every cached range of the provider.
func (c *SlotCache) Invalidate(ctx context.Context, providerID string) error {
	if err := c.rdb.Incr(ctx, generationKey(providerID)).Err(); err != nil {
		return fmt.Errorf("invalidate slots for %s: %w", providerID, err)
	}
	return nil
}

func (c *SlotCache) generation(ctx context.Context, providerID string) (int64, error) {
	v, err := c.rdb.Get(ctx, generationKey(providerID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func generationKey(providerID string) string {
	return "avail:ver:" + providerID
}

func slotsKey(b availability.Bounds, generation int64) string {
	return fmt.Sprintf("avail:slots:%s:v%d:%s:%s:%d",
		b.ProviderID, generation, model.FormatDate(b.Start), model.FormatDate(b.End), b.SlotMinutes)
}

func encodeSlots(slots []model.Slot) ([]byte, error) {
	entries := make([]entry, 0, len(slots))
	for _, s := range slots {
		entries = append(entries, entry{Date: model.FormatDate(s.Date), Time: s.Time, Duration: s.DurationMinutes})
	}
	return json.Marshal(entries)
}

func decodeSlots(raw []byte) ([]model.Slot, error) {
	var entries []entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	slots := make([]model.Slot, 0, len(entries))
	for _, e := range entries {
		d, err := model.ParseDate(e.Date)
		if err != nil {
			return nil, err
		}
		slots = append(slots, model.Slot{Date: d, Time: e.Time, DurationMinutes: e.Duration})
	}
	return slots, nil
}
