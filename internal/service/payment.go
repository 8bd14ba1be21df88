package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"openshelf/internal/apperr"
	"openshelf/internal/config"
	"openshelf/internal/model"
	"openshelf/internal/payment"
	"openshelf/internal/repository"
)

var tracer = otel.Tracer("openshelf/service")

const msgKeysNotConfigured = "Razorpay keys not configured. Please add RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET to backend .env file"

// PaymentService moves a (document, user) pair from unpaid to verified.
// Orders live only at the gateway; the paid set is the only local state.
type PaymentService interface {
	// CreateOrder opens a gateway order for uid to buy the document.
	CreateOrder(ctx context.Context, docID string, uid model.UserID) (model.Order, error)

	// VerifyPayment checks the gateway signature and grants uid access. Repeating it is harmless.
	VerifyPayment(ctx context.Context, docID string, uid model.UserID, proof model.PaymentProof) error

	// CheckStatus reports whether uid has paid for the document.
	CheckStatus(ctx context.Context, docID string, uid model.UserID) (bool, error)
}

type paymentService struct {
	repo    repository.DocumentRepository
	gateway payment.Gateway
	cfg     config.PaymentConfig
	log     *slog.Logger
	now     func() time.Time
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(repo repository.DocumentRepository, gw payment.Gateway, cfg config.PaymentConfig, log *slog.Logger) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gw,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, docID string, uid model.UserID) (model.Order, error) {
	doc, err := findDocument(ctx, s.repo, docID, "Book not found")
	if err != nil {
		return model.Order{}, err
	}
	if doc.HasPaid(uid) {
		return model.Order{}, apperr.AlreadyPaid("Already purchased")
	}
	if !payment.Configured(s.cfg.KeyID, s.cfg.KeySecret) {
		return model.Order{}, apperr.Configuration(msgKeysNotConfigured)
	}

	ctx, span := tracer.Start(ctx, "payment.CreateOrder")
	defer span.End()
	span.SetAttributes(attribute.String("book.id", docID), attribute.Int64("order.amount", s.cfg.Amount))

	order, err := s.gateway.CreateOrder(ctx, payment.OrderRequest{
		Amount:   s.cfg.Amount,
		Currency: s.cfg.Currency,
		Receipt:  payment.BuildReceipt(docID, uid, s.now()),
		Notes: map[string]string{
			"bookId": docID,
			"userId": uid.String(),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway order failed")
		s.log.Error("order creation failed", slog.String("book_id", docID), slog.String("error", err.Error()))
		msg := err.Error()
		if msg == "" {
			msg = "Payment initialization failed"
		}
		return model.Order{}, apperr.Gateway(msg, err)
	}
	span.SetAttributes(attribute.String("order.id", order.ID))
	return order, nil
}

func (s *paymentService) VerifyPayment(ctx context.Context, docID string, uid model.UserID, proof model.PaymentProof) error {
	if s.cfg.KeySecret == "" {
		return apperr.Configuration(msgKeysNotConfigured)
	}
	if !payment.VerifySignature(s.cfg.KeySecret, proof) {
		return apperr.Verification("Payment verification failed")
	}

	doc, err := findDocument(ctx, s.repo, docID, "Book not found")
	if err != nil {
		return err
	}
	if doc.HasPaid(uid) {
		return nil
	}
	// The conditional append makes concurrent verifications of the same payment converge.
	if _, err := s.repo.AddPaidUser(ctx, docID, uid); err != nil {
		return err
	}
	s.log.Info("payment verified",
		slog.String("book_id", docID),
		slog.String("user_id", uid.String()),
		slog.String("order_id", proof.OrderID),
	)
	return nil
}

func (s *paymentService) CheckStatus(ctx context.Context, docID string, uid model.UserID) (bool, error) {
	doc, err := findDocument(ctx, s.repo, docID, "Book not found")
	if err != nil {
		return false, err
	}
	return doc.HasPaid(uid), nil
}
