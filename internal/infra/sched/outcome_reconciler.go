package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nyota-pay/internal/domain/ports/repository"
	"nyota-pay/internal/infra/worker"
	"nyota-pay/internal/usecase"
)

// OutcomeReconciler periodically re-probes initiated checkouts whose outcome
// is still unknown, warming the terminal-outcome cache. This covers the case
// where the applicant paid but closed the page mid-poll: their next status
// call answers from cache instead of starting reconciliation from scratch.
// Probes are read-only against the gateway, so an extra probe is always safe.
type OutcomeReconciler struct {
	uc       usecase.PaymentUseCase
	pending  repository.PendingCheckouts
	pool     *worker.Pool
	interval time.Duration
	log      *zerolog.Logger
}

func NewOutcomeReconciler(uc usecase.PaymentUseCase, pending repository.PendingCheckouts, pool *worker.Pool, interval time.Duration, logger *zerolog.Logger) *OutcomeReconciler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OutcomeReconciler{uc: uc, pending: pending, pool: pool, interval: interval, log: logger}
}

func (w *OutcomeReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *OutcomeReconciler) tick(ctx context.Context) {
	ids, err := w.pending.List(ctx, 200)
	if err != nil {
		w.log.Warn().Err(err).Msg("reconciler: list pending failed")
		return
	}
	for _, id := range ids {
		checkoutID := id
		err := w.pool.Submit(func(taskCtx context.Context) error {
			// CheckStatus caches terminal outcomes and removes the pending
			// entry itself; the reconciler only feeds it work.
			_, err := w.uc.CheckStatus(taskCtx, checkoutID)
			return err
		})
		if err != nil {
			w.log.Debug().Err(err).Str("checkout_id", checkoutID).Msg("reconciler: submit skipped")
		}
	}
}
