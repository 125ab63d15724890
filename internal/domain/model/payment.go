package model

import (
	"encoding/json"
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated" // STK push accepted by the gateway
	PaymentStatusPending   PaymentStatus = "pending"   // awaiting applicant PIN / gateway settlement
	PaymentStatusPaid      PaymentStatus = "paid"      // gateway confirmed the charge
	PaymentStatusFailed    PaymentStatus = "failed"    // gateway explicitly reported failed/cancelled
	PaymentStatusError     PaymentStatus = "error"     // probe could not complete; outcome unknown
)

// Terminal reports whether no further state change is expected.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid || s == PaymentStatusFailed
}

// ChargeRequest is one logical attempt to collect the processing fee.
// Reference is the caller-supplied idempotency token; re-submitting with the
// same reference is the caller's signal that it is the same attempt.
type ChargeRequest struct {
	Phone       string // raw, normalized before the gateway call
	AmountKES   int64  // whole shillings, must be > 0
	Reference   string
	Description string
}

// Checkout is the handle issued by the gateway for one charge attempt.
// It is created exactly once per successful ChargeRequest and never reused.
type Checkout struct {
	ID        string
	Reference string
	IssuedAt  time.Time
	Raw       json.RawMessage // gateway response body, passed through to callers
}

// StatusResult is the outcome of a single status probe.
type StatusResult struct {
	Status  PaymentStatus
	Message string
	Raw     json.RawMessage
}

// MapStatusText folds the gateway's free-form status text into an outcome.
// successFlag is the gateway's explicit boolean when present; it wins over
// the text (a success:false with no failed/cancelled text stays pending).
func MapStatusText(text string, successFlag bool) PaymentStatus {
	if successFlag {
		return PaymentStatusPaid
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "success", "paid", "completed":
		return PaymentStatusPaid
	case "failed", "cancelled", "canceled":
		return PaymentStatusFailed
	default:
		return PaymentStatusPending
	}
}
