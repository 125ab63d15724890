package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"nyota-pay/internal/domain/model"
	"nyota-pay/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is an in-memory gateway for dev mode and tests. Every
// checkout it issues reports paid after two probes, which is enough to
// exercise the full initiate -> pending -> paid flow without SwiftPay.
type NoopPaymentGateway struct {
	mu     sync.Mutex
	seq    int64
	probes map[string]int // checkout id -> probe count
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{probes: make(map[string]int)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) InitiateSTKPush(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("noop-%d", g.seq)
	g.probes[id] = 0
	raw, _ := json.Marshal(map[string]any{"success": true, "data": map[string]any{"checkout_id": id}})
	return &model.Checkout{ID: id, Reference: req.Reference, IssuedAt: time.Now(), Raw: raw}, nil
}

func (g *NoopPaymentGateway) LookupStatus(ctx context.Context, checkoutID string) (*model.StatusResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.probes[checkoutID]
	if !ok {
		return &model.StatusResult{Status: model.PaymentStatusFailed, Message: "unknown checkout"}, nil
	}
	g.probes[checkoutID] = n + 1
	if n < 2 {
		raw, _ := json.Marshal(map[string]any{"status": "pending"})
		return &model.StatusResult{Status: model.PaymentStatusPending, Raw: raw}, nil
	}
	raw, _ := json.Marshal(map[string]any{"success": true, "status": "completed"})
	return &model.StatusResult{Status: model.PaymentStatusPaid, Raw: raw}, nil
}
