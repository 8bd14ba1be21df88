package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"openshelf/internal/model"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) CreateOrder(ctx context.Context, docID string, uid model.UserID) (model.Order, error) {
	args := m.Called(ctx, docID, uid)
	return args.Get(0).(model.Order), args.Error(1)
}

func (m *MockPaymentService) VerifyPayment(ctx context.Context, docID string, uid model.UserID, proof model.PaymentProof) error {
	args := m.Called(ctx, docID, uid, proof)
	return args.Error(0)
}

func (m *MockPaymentService) CheckStatus(ctx context.Context, docID string, uid model.UserID) (bool, error) {
	args := m.Called(ctx, docID, uid)
	return args.Bool(0), args.Error(1)
}
