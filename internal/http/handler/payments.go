package handler

import (
	"github.com/gofiber/fiber/v2"

	"openshelf/internal/http/middleware"
	"openshelf/internal/model"
	"openshelf/internal/service"
)

type createOrderRequest struct {
	BookID string `json:"bookId" validate:"required"`
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
	BookID    string `json:"bookId" validate:"required"`
}

// CreateOrder godoc
// @Summary Open a payment order for a document
// @Tags payment
// @Accept json
// @Produce json
// @Param body body createOrderRequest true "Order"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Security BearerAuth
// @Router /payment/create-order [post]
func CreateOrder(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createOrderRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		order, err := svc.CreateOrder(c.UserContext(), req.BookID, middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "order": order})
	}
}

// VerifyPayment godoc
// @Summary Verify a completed payment and grant access
// @Tags payment
// @Accept json
// @Produce json
// @Param body body verifyPaymentRequest true "Gateway callback fields"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} errorPayload
// @Security BearerAuth
// @Router /payment/verify [post]
func VerifyPayment(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req verifyPaymentRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		proof := model.PaymentProof{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
			Signature: req.Signature,
		}
		if err := svc.VerifyPayment(c.UserContext(), req.BookID, middleware.CurrentUser(c), proof); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "message": "Payment verified successfully"})
	}
}

// PaymentStatus godoc
// @Summary Check whether the caller paid for a document
// @Tags payment
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} errorPayload
// @Security BearerAuth
// @Router /payment/status/{id} [get]
func PaymentStatus(svc service.PaymentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		paid, err := svc.CheckStatus(c.UserContext(), c.Params("id"), middleware.CurrentUser(c))
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"status": "ok", "hasPaid": paid})
	}
}
