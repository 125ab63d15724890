// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"nyota-pay/internal/domain"
	"nyota-pay/internal/domain/model"
	"nyota-pay/internal/domain/ports/adapter"
	"nyota-pay/internal/domain/ports/repository"
	"nyota-pay/internal/infra/logging"
	"nyota-pay/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

type PaymentUseCase interface {
	// Initiate issues exactly one STK push and returns the checkout handle.
	// Callers must not re-invoke it for the same logical attempt without a
	// fresh reference: that is how a double charge happens.
	Initiate(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error)
	// CheckStatus performs a single status probe. Probe faults are absorbed
	// into a retryable error outcome, never returned as a Go error.
	CheckStatus(ctx context.Context, checkoutID string) (*model.StatusResult, error)
	// PollUntilTerminal repeats CheckStatus with a fixed delay until the
	// outcome is terminal or maxAttempts is exhausted; exhaustion surfaces
	// pending ("gateway is slow"), not an error ("gateway said no").
	PollUntilTerminal(ctx context.Context, checkoutID string, maxAttempts int, interval time.Duration) (*model.StatusResult, error)
}

const (
	DefaultMaxAttempts  = 12
	DefaultPollInterval = 5 * time.Second
)

type paymentUC struct {
	gateway adapter.PaymentGateway
	cache   repository.OutcomeCache     // optional; nil disables caching
	pending repository.PendingCheckouts // optional; nil disables the reconciler feed
	log     *zerolog.Logger

	// Operator-configured poll defaults, applied when a caller passes zero.
	pollMaxAttempts int
	pollInterval    time.Duration
}

func NewPaymentUseCase(gateway adapter.PaymentGateway, cache repository.OutcomeCache, pending repository.PendingCheckouts, logger *zerolog.Logger) *paymentUC {
	return &paymentUC{
		gateway:         gateway,
		cache:           cache,
		pending:         pending,
		log:             logger,
		pollMaxAttempts: DefaultMaxAttempts,
		pollInterval:    DefaultPollInterval,
	}
}

// WithPollDefaults overrides the fallback attempt count and delay that
// PollUntilTerminal uses when a caller passes zero. Non-positive values keep
// the previous setting.
func (u *paymentUC) WithPollDefaults(maxAttempts int, interval time.Duration) *paymentUC {
	if maxAttempts > 0 {
		u.pollMaxAttempts = maxAttempts
	}
	if interval > 0 {
		u.pollInterval = interval
	}
	return u
}

func (u *paymentUC) Initiate(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error) {
	// Validation happens before any network call.
	normalized, ok := model.NormalizePhone(req.Phone)
	if !ok {
		return nil, domain.ErrInvalidPhone
	}
	req.Phone = normalized

	if req.AmountKES <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if req.Reference == "" {
		req.Reference = fmt.Sprintf("NYT-%s", ulid.Make())
	}
	if req.Description == "" {
		req.Description = "Payment"
	}

	checkout, err := u.gateway.InitiateSTKPush(ctx, req)
	if err != nil {
		metrics.IncInitiate("rejected")
		u.log.Warn().Err(err).
			Str("reference", req.Reference).
			Str("phone", logging.RedactPhone(req.Phone)).
			Msg("stk push rejected")
		return nil, err
	}
	metrics.IncInitiate("ok")

	if u.pending != nil {
		if err := u.pending.Add(ctx, checkout.ID); err != nil {
			u.log.Warn().Err(err).Str("checkout_id", checkout.ID).Msg("pending store add failed")
		}
	}

	u.log.Info().
		Str("checkout_id", checkout.ID).
		Str("reference", checkout.Reference).
		Str("phone", logging.RedactPhone(req.Phone)).
		Int64("amount", req.AmountKES).
		Msg("stk push initiated")
	return checkout, nil
}

func (u *paymentUC) CheckStatus(ctx context.Context, checkoutID string) (*model.StatusResult, error) {
	if checkoutID == "" {
		return nil, domain.ErrMissingCheckoutID
	}

	// A terminal outcome never changes, so a cache hit is as good as the
	// gateway's answer and keeps re-probes of a paid checkout cheap.
	if u.cache != nil {
		if cached, err := u.cache.Get(ctx, checkoutID); err != nil {
			u.log.Warn().Err(err).Str("checkout_id", checkoutID).Msg("outcome cache read failed")
		} else if cached != nil {
			metrics.IncProbe(string(cached.Status), true)
			return cached, nil
		}
	}

	start := time.Now()
	res, err := u.gateway.LookupStatus(ctx, checkoutID)
	metrics.ObserveProbeDuration(time.Since(start), err == nil)
	if err != nil {
		// Absorbed: a flaky probe means "don't know yet", not "failed".
		metrics.IncProbe(string(model.PaymentStatusError), false)
		u.log.Warn().Err(err).Str("checkout_id", checkoutID).Msg("status probe failed")
		return &model.StatusResult{Status: model.PaymentStatusError, Message: err.Error()}, nil
	}
	metrics.IncProbe(string(res.Status), false)

	if res.Status.Terminal() {
		if u.cache != nil {
			if err := u.cache.StoreTerminal(ctx, checkoutID, res); err != nil {
				u.log.Warn().Err(err).Str("checkout_id", checkoutID).Msg("outcome cache write failed")
			}
		}
		if u.pending != nil {
			if err := u.pending.Remove(ctx, checkoutID); err != nil {
				u.log.Warn().Err(err).Str("checkout_id", checkoutID).Msg("pending store remove failed")
			}
		}
		u.log.Info().Str("checkout_id", checkoutID).Str("status", string(res.Status)).Msg("payment reached terminal state")
	}
	return res, nil
}

func (u *paymentUC) PollUntilTerminal(ctx context.Context, checkoutID string, maxAttempts int, interval time.Duration) (*model.StatusResult, error) {
	if maxAttempts <= 0 {
		maxAttempts = u.pollMaxAttempts
	}
	if interval <= 0 {
		interval = u.pollInterval
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			// Caller abandoned the poll; any in-flight probe result is
			// discarded rather than surfaced.
			return nil, ctx.Err()
		case <-timer.C:
		}

		res, err := u.CheckStatus(ctx, checkoutID)
		if err != nil {
			return nil, err
		}
		if res.Status.Terminal() {
			return res, nil
		}
		timer.Reset(interval)
	}

	u.log.Debug().Str("checkout_id", checkoutID).Int("attempts", maxAttempts).Msg("poll attempts exhausted, still pending")
	return &model.StatusResult{
		Status:  model.PaymentStatusPending,
		Message: "payment still pending, check again",
	}, nil
}
