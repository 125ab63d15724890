package domain

import (
	"errors"
	"fmt"
)

var (
	// User-correctable input errors, rejected before any network call.
	ErrInvalidPhone  = errors.New("invalid phone number format")
	ErrInvalidAmount = errors.New("invalid amount")

	// Operator-correctable: required gateway credentials are missing.
	ErrNotConfigured = errors.New("payment gateway not configured")

	ErrMissingCheckoutID = errors.New("missing checkout id")
)

// GatewayError means the gateway declined the request or returned a body we
// could not use. The remote message is kept for the applicant; RawBody is
// passed through for support follow-up.
type GatewayError struct {
	Message    string
	StatusCode int
	RawBody    []byte
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("gateway rejected request: %s", e.Message)
	}
	return fmt.Sprintf("gateway rejected request (http %d)", e.StatusCode)
}

// AsGatewayError unwraps err into a *GatewayError when it is one.
func AsGatewayError(err error) (*GatewayError, bool) {
	var ge *GatewayError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
