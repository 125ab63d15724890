package adapter

import (
	"context"

	"nyota-pay/internal/domain/model"
)

// PaymentGateway is the hex port for the mobile-money processor.
//
// InitiateSTKPush must issue exactly one charge attempt per call; the port
// never retries, because a retry here can double-charge the applicant.
// LookupStatus is a read-only probe: the gateway is the source of truth for
// payment state and probing it never mutates anything, so callers may probe
// as often as they like.
type PaymentGateway interface {
	Name() string

	// InitiateSTKPush sends one charge request and returns the checkout
	// handle the gateway issued for it. req.Phone must already be in
	// canonical 254XXXXXXXXX form.
	InitiateSTKPush(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error)

	// LookupStatus asks the gateway for the current outcome of a checkout.
	// A transport or parse fault is returned as an error; a gateway-reported
	// state (including failed) comes back as a StatusResult.
	LookupStatus(ctx context.Context, checkoutID string) (*model.StatusResult, error)
}
