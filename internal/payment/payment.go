// Package payment talks to the payment gateway: order creation, completion
// signature checks and receipt generation.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"openshelf/internal/model"
)

// Placeholder credentials shipped in sample env files.
const (
	placeholderKeyID     = "your_razorpay_key_id"
	placeholderKeySecret = "your_razorpay_key_secret"
)

// OrderRequest describes an order to open with the gateway.
type OrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]string
}

// Gateway creates orders with the external payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (model.Order, error)
}

// Configured reports whether real gateway credentials are present.
func Configured(keyID, keySecret string) bool {
	return keyID != "" && keySecret != "" &&
		keyID != placeholderKeyID && keySecret != placeholderKeySecret
}

// Sign returns the hex HMAC-SHA256 of "orderID|paymentID" keyed by secret.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature was produced by the gateway for this order and payment.
func VerifySignature(secret string, proof model.PaymentProof) bool {
	want := Sign(secret, proof.OrderID, proof.PaymentID)
	return hmac.Equal([]byte(want), []byte(proof.Signature))
}

// BuildReceipt derives a receipt id from the document, the buyer and the time.
// The gateway caps receipts at 40 characters; the result is always 37.
func BuildReceipt(docID string, uid model.UserID, now time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%d", docID, uid, now.UnixMilli())))
	return "rcpt_" + hex.EncodeToString(sum[:])[:32]
}
