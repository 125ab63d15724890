package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nyota-pay/internal/domain/model"
	"nyota-pay/internal/domain/ports/repository"
)

var _ repository.OutcomeCache = (*OutcomeCache)(nil)

// OutcomeCache keeps terminal payment outcomes keyed by checkout id. It is
// strictly an optimization: the gateway stays the source of truth and a
// cold cache only costs one extra probe.
type OutcomeCache struct {
	client RedisClient
	ttl    time.Duration
}

func NewOutcomeCache(client RedisClient, ttl time.Duration) *OutcomeCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &OutcomeCache{client: client, ttl: ttl}
}

func outcomeKey(checkoutID string) string { return "payment_outcome:" + checkoutID }

func (c *OutcomeCache) Get(ctx context.Context, checkoutID string) (*model.StatusResult, error) {
	data, err := c.client.Get(ctx, outcomeKey(checkoutID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var res model.StatusResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *OutcomeCache) StoreTerminal(ctx context.Context, checkoutID string, res *model.StatusResult) error {
	// Non-terminal outcomes may still change; caching one would let a stale
	// "pending" shadow a real "paid".
	if res == nil {
		return fmt.Errorf("nil outcome")
	}
	if !res.Status.Terminal() {
		return fmt.Errorf("refusing to cache non-terminal outcome %q", res.Status)
	}
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, outcomeKey(checkoutID), data, c.ttl)
}
