package web

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"nyota-pay/internal/domain"
	"nyota-pay/internal/domain/model"
	"nyota-pay/internal/infra/logging"
)

// The intake UI and older clients disagree on field names, so both spellings
// are accepted on input, mirroring the gateway-side shape tolerance.
type initiateRequest struct {
	Phone       string      `json:"phone"`
	PhoneNumber string      `json:"phone_number"`
	Amount      json.Number `json:"amount"`
	Reference   string      `json:"reference"`
	Description string      `json:"description"`
}

type initiateResponse struct {
	Success    bool            `json:"success"`
	CheckoutID string          `json:"checkoutId,omitempty"`
	Message    string          `json:"message,omitempty"`
	Raw        json.RawMessage `json:"raw,omitempty"`
}

type statusRequest struct {
	CheckoutID    string `json:"checkoutId"`
	CheckoutIDAlt string `json:"checkout_id"`
}

type statusResponse struct {
	Status         string          `json:"status"`
	Message        string          `json:"message,omitempty"`
	Raw            json.RawMessage `json:"raw,omitempty"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
}

func (s *Server) handleInitiate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req initiateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, initiateResponse{Success: false, Message: "Invalid request body"})
		return
	}

	phone := req.Phone
	if phone == "" {
		phone = req.PhoneNumber
	}

	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeJSON(w, http.StatusBadRequest, initiateResponse{Success: false, Message: "Invalid amount"})
		return
	}

	// The limiter keys on the normalized phone so "0712..." and "254712..."
	// share one bucket.
	if s.limiter != nil && s.rate.Limit > 0 {
		if normalized, ok := model.NormalizePhone(phone); ok {
			allowed, err := s.limiter.Allow(ctx, rateLimitKey(normalized), s.rate.Limit, s.rate.Window)
			if err != nil {
				s.log.Warn().Err(err).Msg("rate limiter unavailable, allowing request")
			} else if !allowed {
				writeJSON(w, http.StatusTooManyRequests, initiateResponse{Success: false, Message: "Too many payment attempts, try again shortly"})
				return
			}
		}
	}

	checkout, err := s.paymentUC.Initiate(ctx, model.ChargeRequest{
		Phone:       phone,
		AmountKES:   amount,
		Reference:   req.Reference,
		Description: req.Description,
	})
	if err != nil {
		s.writeInitiateError(w, err)
		return
	}

	logging.With(logging.WithCheckoutID(ctx, checkout.ID), s.log).Debug().Msg("initiate ok")
	writeJSON(w, http.StatusOK, initiateResponse{
		Success:    true,
		CheckoutID: checkout.ID,
		Raw:        checkout.Raw,
	})
}

func (s *Server) writeInitiateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidPhone):
		writeJSON(w, http.StatusBadRequest, initiateResponse{Success: false, Message: "Invalid phone number format"})
	case errors.Is(err, domain.ErrInvalidAmount):
		writeJSON(w, http.StatusBadRequest, initiateResponse{Success: false, Message: "Invalid amount"})
	default:
		if ge, ok := domain.AsGatewayError(err); ok {
			code := ge.StatusCode
			if code < http.StatusBadRequest {
				code = http.StatusBadGateway
			}
			writeJSON(w, code, initiateResponse{Success: false, Message: ge.Message, Raw: rawMessage(ge.RawBody)})
			return
		}
		s.log.Error().Err(err).Msg("initiate failed")
		writeJSON(w, http.StatusInternalServerError, initiateResponse{Success: false, Message: "Payment initiation failed"})
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Invalid request body"})
		return
	}
	checkoutID := req.CheckoutID
	if checkoutID == "" {
		checkoutID = req.CheckoutIDAlt
	}
	if checkoutID == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Status: "error", Message: "Missing checkoutId"})
		return
	}

	res, err := s.paymentUC.CheckStatus(ctx, checkoutID)
	if err != nil {
		s.log.Error().Err(err).Str("checkout_id", checkoutID).Msg("status check failed")
		writeJSON(w, http.StatusInternalServerError, statusResponse{Status: "error", Message: "Status check failed"})
		return
	}

	if res.Status == model.PaymentStatusError {
		// Probe could not complete; the caller should treat this as
		// retryable, never as a declined payment.
		writeJSON(w, http.StatusBadGateway, statusResponse{Status: "error", Message: res.Message, Raw: res.Raw})
		return
	}

	out := statusResponse{Message: res.Message, Raw: res.Raw}
	switch res.Status {
	case model.PaymentStatusPaid:
		out.Status = "paid"
		// Pure function of the checkout id: the same number comes back on
		// every re-poll and after any client restart.
		out.TrackingNumber = model.DeriveTrackingNumber(checkoutID)
	case model.PaymentStatusFailed:
		out.Status = "failed"
	default:
		out.Status = "pending"
	}
	writeJSON(w, http.StatusOK, out)
}

func parseAmount(n json.Number) (int64, bool) {
	if n.String() == "" {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	i := int64(f)
	if float64(i) != f {
		return 0, false
	}
	return i, true
}

func rateLimitKey(phone string) string {
	return "rate_limit:initiate:" + phone
}

func rawMessage(b []byte) json.RawMessage {
	if len(b) == 0 || !json.Valid(b) {
		return nil
	}
	return b
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
