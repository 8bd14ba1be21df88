package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"openshelf/internal/apperr"
	"openshelf/internal/config"
	"openshelf/internal/logger"
	"openshelf/internal/model"
	"openshelf/internal/payment"
	payMocks "openshelf/internal/payment/mocks"
	repoMocks "openshelf/internal/repository/mocks"
)

const testDocID = "6f1c7a52-4c1e-4a51-9b8e-2f0b9d3f1a10"

var testPaymentCfg = config.PaymentConfig{
	KeyID:     "rzp_test_key",
	KeySecret: "rzp_test_secret",
	Amount:    900,
	Currency:  "INR",
}

func TestPaymentService_CreateOrder(t *testing.T) {
	ctx := context.Background()
	order := model.Order{ID: "order_1", Entity: "order", Amount: 900, Currency: "INR", Status: "created"}

	tests := []struct {
		name       string
		cfg        config.PaymentConfig
		setupMocks func(mRepo *repoMocks.MockDocumentRepository, mGw *payMocks.MockGateway)
		want       model.Order
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "happy path",
			cfg:  testPaymentCfg,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mGw *payMocks.MockGateway) {
				mRepo.On("FindByID", ctx, testDocID).Return(&model.Document{ID: testDocID, Owner: "u1"}, nil)
				mGw.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req payment.OrderRequest) bool {
					return req.Amount == 900 &&
						req.Currency == "INR" &&
						strings.HasPrefix(req.Receipt, "rcpt_") && len(req.Receipt) == 37 &&
						req.Notes["bookId"] == testDocID && req.Notes["userId"] == "u2"
				})).Return(order, nil)
			},
			want: order,
		},
		{
			name: "document not found",
			cfg:  testPaymentCfg,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mGw *payMocks.MockGateway) {
				mRepo.On("FindByID", ctx, testDocID).Return(nil, sql.ErrNoRows)
			},
			wantErr:    apperr.ErrNotFound,
			wantErrMsg: "Book not found",
		},
		{
			name: "already paid",
			cfg:  testPaymentCfg,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mGw *payMocks.MockGateway) {
				mRepo.On("FindByID", ctx, testDocID).
					Return(&model.Document{ID: testDocID, Owner: "u1", PaidUsers: []model.UserID{"u2"}}, nil)
			},
			wantErr:    apperr.ErrAlreadyPaid,
			wantErrMsg: "Already purchased",
		},
		{
			name: "placeholder credentials",
			cfg:  config.PaymentConfig{KeyID: "your_razorpay_key_id", KeySecret: "s", Amount: 900, Currency: "INR"},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mGw *payMocks.MockGateway) {
				mRepo.On("FindByID", ctx, testDocID).Return(&model.Document{ID: testDocID, Owner: "u1"}, nil)
			},
			wantErr: apperr.ErrConfiguration,
		},
		{
			name: "gateway error surfaces description",
			cfg:  testPaymentCfg,
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository, mGw *payMocks.MockGateway) {
				mRepo.On("FindByID", ctx, testDocID).Return(&model.Document{ID: testDocID, Owner: "u1"}, nil)
				mGw.On("CreateOrder", mock.Anything, mock.Anything).
					Return(model.Order{}, errors.New("Authentication failed"))
			},
			wantErr:    apperr.ErrGateway,
			wantErrMsg: "Authentication failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			mGw := new(payMocks.MockGateway)
			tt.setupMocks(mRepo, mGw)

			svc := NewPaymentService(mRepo, mGw, tt.cfg, logger.Discard())
			got, err := svc.CreateOrder(ctx, testDocID, "u2")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				if tt.wantErrMsg != "" {
					e, ok := apperr.As(err)
					require.True(t, ok)
					assert.Equal(t, tt.wantErrMsg, e.Message)
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			mGw.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func newPaymentFixture(t *testing.T) (*paymentService, *memRepo, *payMocks.MockGateway, string) {
	t.Helper()
	repo := newMemRepo()
	doc, err := repo.Create(context.Background(), &model.Document{ID: testDocID, Title: "Algebra", Owner: "u1"})
	require.NoError(t, err)
	gw := new(payMocks.MockGateway)
	svc := NewPaymentService(repo, gw, testPaymentCfg, logger.Discard()).(*paymentService)
	svc.now = func() time.Time { return time.UnixMilli(1709287200000) }
	return svc, repo, gw, doc.ID
}

func TestPaymentService_PurchaseScenario(t *testing.T) {
	ctx := context.Background()
	svc, repo, gw, docID := newPaymentFixture(t)
	gw.On("CreateOrder", mock.Anything, mock.Anything).Return(model.Order{ID: "order_1"}, nil)

	order, err := svc.CreateOrder(ctx, docID, "u2")
	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)

	_, err = svc.CreateOrder(ctx, docID, "u2")
	require.NoError(t, err)

	paid, err := svc.CheckStatus(ctx, docID, "u2")
	require.NoError(t, err)
	assert.False(t, paid, "creating orders never grants access")

	proof := model.PaymentProof{OrderID: order.ID, PaymentID: "pay_1"}
	proof.Signature = payment.Sign(testPaymentCfg.KeySecret, proof.OrderID, proof.PaymentID)
	require.NoError(t, svc.VerifyPayment(ctx, docID, "u2", proof))

	paid, err = svc.CheckStatus(ctx, docID, "u2")
	require.NoError(t, err)
	assert.True(t, paid)

	require.NoError(t, svc.VerifyPayment(ctx, docID, "u2", proof))
	doc, err := repo.FindByID(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, []model.UserID{"u2"}, doc.PaidUsers, "verification is idempotent")

	_, err = svc.CreateOrder(ctx, docID, "u2")
	assert.ErrorIs(t, err, apperr.ErrAlreadyPaid)
	gw.AssertNumberOfCalls(t, "CreateOrder", 2)
}

func TestPaymentService_VerifyPaymentTampered(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, docID := newPaymentFixture(t)

	proof := model.PaymentProof{OrderID: "order_1", PaymentID: "pay_1"}
	proof.Signature = payment.Sign("some other secret", proof.OrderID, proof.PaymentID)

	err := svc.VerifyPayment(ctx, docID, "u2", proof)
	assert.ErrorIs(t, err, apperr.ErrVerification)

	doc, err := repo.FindByID(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, doc.PaidUsers)
}

func TestPaymentService_VerifyPaymentErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing secret", func(t *testing.T) {
		svc := NewPaymentService(newMemRepo(), nil, config.PaymentConfig{}, logger.Discard())
		err := svc.VerifyPayment(ctx, testDocID, "u2", model.PaymentProof{OrderID: "o", PaymentID: "p", Signature: "s"})
		assert.ErrorIs(t, err, apperr.ErrConfiguration)
	})

	t.Run("unknown document", func(t *testing.T) {
		svc := NewPaymentService(newMemRepo(), nil, testPaymentCfg, logger.Discard())
		proof := model.PaymentProof{OrderID: "o", PaymentID: "p"}
		proof.Signature = payment.Sign(testPaymentCfg.KeySecret, "o", "p")
		err := svc.VerifyPayment(ctx, testDocID, "u2", proof)
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestPaymentService_CheckStatusNotFound(t *testing.T) {
	svc := NewPaymentService(newMemRepo(), nil, testPaymentCfg, logger.Discard())
	_, err := svc.CheckStatus(context.Background(), "nope", "u2")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestPaymentService_LogsComponentOnce(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	log := logger.Component(logger.New(&buf, time.UTC), "payment")
	repo := new(repoMocks.MockDocumentRepository)
	gw := new(payMocks.MockGateway)
	repo.On("FindByID", ctx, testDocID).Return(&model.Document{ID: testDocID, Owner: "u1"}, nil)
	gw.On("CreateOrder", mock.Anything, mock.Anything).Return(model.Order{}, errors.New("gateway down"))

	_, err := NewPaymentService(repo, gw, testPaymentCfg, log).CreateOrder(ctx, testDocID, "u2")
	require.ErrorIs(t, err, apperr.ErrGateway)

	line := buf.String()
	assert.Contains(t, line, `"component":"payment"`)
	assert.Equal(t, 1, strings.Count(line, `"component"`))
}
