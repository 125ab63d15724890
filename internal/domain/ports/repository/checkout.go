package repository

import (
	"context"

	"nyota-pay/internal/domain/model"
)

// OutcomeCache remembers terminal outcomes so a re-probe of an already-paid
// checkout can answer without a gateway round trip. Only terminal outcomes
// may ever be stored: a cached answer must never flip.
type OutcomeCache interface {
	// Get returns the cached terminal outcome, or (nil, nil) on a miss.
	Get(ctx context.Context, checkoutID string) (*model.StatusResult, error)
	StoreTerminal(ctx context.Context, checkoutID string, res *model.StatusResult) error
}

// PendingCheckouts tracks checkout ids that were initiated but have not yet
// reached a terminal outcome, so the background reconciler can re-probe
// them. Entries are TTL-bounded; an abandoned checkout ages out on its own.
type PendingCheckouts interface {
	Add(ctx context.Context, checkoutID string) error
	Remove(ctx context.Context, checkoutID string) error
	List(ctx context.Context, limit int) ([]string, error)
}
