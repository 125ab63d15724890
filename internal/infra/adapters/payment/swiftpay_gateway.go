package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nyota-pay/internal/domain"
	"nyota-pay/internal/domain/model"
	"nyota-pay/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SwiftPayGateway)(nil)

const DefaultBaseURL = "https://swiftpay-backend-uvv9.onrender.com"

// SwiftPayGateway implements adapter.PaymentGateway against the SwiftPay
// M-Pesa bridge: STK push via /api/mpesa/stk-push-api and status lookup via
// /api/mpesa-verification-proxy.
//
// SwiftPay is not consistent about field names across response versions, so
// both the checkout id and the status text are extracted by an ordered list
// of rules tried in sequence. That tolerance lives entirely in this file;
// nothing above this boundary knows about the gateway's schema drift.
type SwiftPayGateway struct {
	baseURL string
	apiKey  string
	tillID  string
	client  *http.Client
}

func NewSwiftPayGateway(baseURL, apiKey, tillID string) (*SwiftPayGateway, error) {
	if apiKey == "" || tillID == "" {
		return nil, domain.ErrNotConfigured
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &SwiftPayGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		tillID:  tillID,
		client:  &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *SwiftPayGateway) Name() string { return "swiftpay" }

// checkoutIDRules are the known locations of the checkout identifier,
// newest response shape first.
var checkoutIDRules = [][]string{
	{"data", "checkout_id"},
	{"data", "checkoutId"},
	{"checkoutRequestId"},
	{"checkout_id"},
	{"checkoutId"},
}

// statusTextRules are the known locations of the textual payment status.
var statusTextRules = [][]string{
	{"status"},
	{"data", "status"},
	{"data", "state"},
	{"result", "status"},
}

func (g *SwiftPayGateway) InitiateSTKPush(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error) {
	payload := map[string]any{
		"phone_number": req.Phone,
		"amount":       req.AmountKES,
		"till_id":      g.tillID,
		"reference":    req.Reference,
		"description":  req.Description,
	}
	b, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/mpesa/stk-push-api", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("swiftpay stk push: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	parsed := parseBody(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed == nil {
		return nil, &domain.GatewayError{
			Message:    remoteMessage(parsed, "Payment initiation failed"),
			StatusCode: resp.StatusCode,
			RawBody:    body,
		}
	}

	// A 200 without a recognizable checkout id cannot be polled, so it is a
	// rejection no matter what the gateway claims.
	checkoutID := firstString(parsed, checkoutIDRules)
	if checkoutID == "" {
		return nil, &domain.GatewayError{
			Message:    remoteMessage(parsed, "Gateway returned no checkout id"),
			StatusCode: resp.StatusCode,
			RawBody:    body,
		}
	}

	return &model.Checkout{
		ID:        checkoutID,
		Reference: req.Reference,
		IssuedAt:  time.Now(),
		Raw:       body,
	}, nil
}

func (g *SwiftPayGateway) LookupStatus(ctx context.Context, checkoutID string) (*model.StatusResult, error) {
	payload := map[string]any{
		"checkoutId": checkoutID,
		"apiKey":     g.apiKey,
	}
	b, _ := json.Marshal(payload)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/mpesa-verification-proxy", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("swiftpay status lookup: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	parsed := parseBody(body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || parsed == nil {
		// "Don't know yet", not "gateway says no": the caller maps this to a
		// retryable error outcome rather than a failed payment.
		return nil, errors.New(remoteMessage(parsed, fmt.Sprintf("status check failed (http %d)", resp.StatusCode)))
	}

	successFlag, _ := parsed["success"].(bool)
	statusText := firstString(parsed, statusTextRules)

	return &model.StatusResult{
		Status:  model.MapStatusText(statusText, successFlag),
		Message: remoteMessage(parsed, ""),
		Raw:     body,
	}, nil
}

func parseBody(body []byte) map[string]any {
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	return parsed
}

// firstString walks the rules in order and returns the first non-empty
// string value found. Numeric ids are stringified; SwiftPay has returned
// both.
func firstString(parsed map[string]any, rules [][]string) string {
	if parsed == nil {
		return ""
	}
	for _, path := range rules {
		v := lookup(parsed, path)
		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return ""
}

func lookup(parsed map[string]any, path []string) any {
	var cur any = parsed
	for _, key := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// remoteMessage prefers the gateway's own message/error text, then fallback.
func remoteMessage(parsed map[string]any, fallback string) string {
	if parsed != nil {
		if s, ok := parsed["message"].(string); ok && s != "" {
			return s
		}
		if s, ok := parsed["error"].(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
