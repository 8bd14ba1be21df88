package model

// Order is a gateway-issued payment order. It is never persisted locally.
type Order struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	AmountDue int64             `json:"amount_due"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// PaymentProof is what the client returns after completing checkout.
type PaymentProof struct {
	OrderID   string
	PaymentID string
	Signature string
}
