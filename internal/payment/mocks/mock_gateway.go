package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"openshelf/internal/model"
	"openshelf/internal/payment"
)

// MockGateway is a testify mock of payment.Gateway.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, req payment.OrderRequest) (model.Order, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.Order), args.Error(1)
}
