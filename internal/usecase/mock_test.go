//go:build !integration

package usecase_test

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"nyota-pay/internal/domain/model"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- Mock gateway (port) ---

type MockPaymentGateway struct {
	mu            sync.Mutex
	InitiateFunc  func(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error)
	LookupFunc    func(ctx context.Context, checkoutID string) (*model.StatusResult, error)
	initiateCalls []model.ChargeRequest
	lookupCalls   []string
}

func (m *MockPaymentGateway) Name() string { return "mock" }

func (m *MockPaymentGateway) InitiateSTKPush(ctx context.Context, req model.ChargeRequest) (*model.Checkout, error) {
	m.mu.Lock()
	m.initiateCalls = append(m.initiateCalls, req)
	m.mu.Unlock()
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, req)
	}
	return &model.Checkout{ID: "mock-checkout", Reference: req.Reference}, nil
}

func (m *MockPaymentGateway) LookupStatus(ctx context.Context, checkoutID string) (*model.StatusResult, error) {
	m.mu.Lock()
	m.lookupCalls = append(m.lookupCalls, checkoutID)
	m.mu.Unlock()
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, checkoutID)
	}
	return &model.StatusResult{Status: model.PaymentStatusPending}, nil
}

func (m *MockPaymentGateway) InitiateCalls() []model.ChargeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ChargeRequest(nil), m.initiateCalls...)
}

func (m *MockPaymentGateway) LookupCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lookupCalls...)
}

// --- Mock outcome cache ---

type MockOutcomeCache struct {
	mu       sync.Mutex
	outcomes map[string]*model.StatusResult
	GetErr   error
	StoreErr error
}

func NewMockOutcomeCache() *MockOutcomeCache {
	return &MockOutcomeCache{outcomes: make(map[string]*model.StatusResult)}
}

func (m *MockOutcomeCache) Get(ctx context.Context, checkoutID string) (*model.StatusResult, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[checkoutID], nil
}

func (m *MockOutcomeCache) StoreTerminal(ctx context.Context, checkoutID string, res *model.StatusResult) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[checkoutID] = res
	return nil
}

// --- Mock pending store ---

type MockPendingCheckouts struct {
	mu      sync.Mutex
	pending map[string]bool
}

func NewMockPendingCheckouts() *MockPendingCheckouts {
	return &MockPendingCheckouts{pending: make(map[string]bool)}
}

func (m *MockPendingCheckouts) Add(ctx context.Context, checkoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[checkoutID] = true
	return nil
}

func (m *MockPendingCheckouts) Remove(ctx context.Context, checkoutID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, checkoutID)
	return nil
}

func (m *MockPendingCheckouts) List(ctx context.Context, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.pending))
	for id := range m.pending {
		if len(ids) == limit {
			break
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockPendingCheckouts) Has(checkoutID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending[checkoutID]
}
