package redis

import (
	"context"
	"strings"
	"time"

	"nyota-pay/internal/domain/ports/repository"
)

var _ repository.PendingCheckouts = (*PendingCheckouts)(nil)

const pendingKeyPrefix = "pending_checkout:"

// PendingCheckouts stores one TTL-bounded key per unresolved checkout so
// the reconciler can find work without a database. An abandoned checkout
// simply ages out when its key expires.
type PendingCheckouts struct {
	client RedisClient
	ttl    time.Duration
}

func NewPendingCheckouts(client RedisClient, ttl time.Duration) *PendingCheckouts {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &PendingCheckouts{client: client, ttl: ttl}
}

func (p *PendingCheckouts) Add(ctx context.Context, checkoutID string) error {
	return p.client.Set(ctx, pendingKeyPrefix+checkoutID, "1", p.ttl)
}

func (p *PendingCheckouts) Remove(ctx context.Context, checkoutID string) error {
	return p.client.Del(ctx, pendingKeyPrefix+checkoutID)
}

func (p *PendingCheckouts) List(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	keys, err := p.client.Scan(ctx, pendingKeyPrefix+"*", int64(limit))
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, strings.TrimPrefix(k, pendingKeyPrefix))
	}
	return ids, nil
}
