package payments

import (
	"context"
	"sync"
)

// MockGateway records calls for tests. Zero value succeeds everything.
type MockGateway struct {
	mu sync.Mutex

	Charges []ChargeRequest
	Refunds []RefundRequest

	ChargeErr error
	RefundErr error

	NextChargeRef string
	NextRefundRef string
}

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Charges = append(m.Charges, req)
	if m.ChargeErr != nil {
		return ChargeResponse{}, m.ChargeErr
	}
	ref := m.NextChargeRef
	if ref == "" {
		ref = "pi_mock_1"
	}
	return ChargeResponse{ProviderRef: ref}, nil
}

func (m *MockGateway) Refund(ctx context.Context, req RefundRequest) (RefundResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Refunds = append(m.Refunds, req)
	if m.RefundErr != nil {
		return RefundResponse{}, m.RefundErr
	}
	ref := m.NextRefundRef
	if ref == "" {
		ref = "re_mock_1"
	}
	return RefundResponse{ProviderRef: ref}, nil
}
