package payment

import (
	"context"

	razorpay "github.com/razorpay/razorpay-go"

	"openshelf/internal/model"
)

// orderCreator is the slice of the Razorpay SDK used here.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

// Razorpay is the Gateway backed by the Razorpay orders API.
type Razorpay struct {
	orders orderCreator
}

var _ Gateway = (*Razorpay)(nil)

// NewRazorpay builds a client authenticated with the given key pair.
func NewRazorpay(keyID, keySecret string) *Razorpay {
	return &Razorpay{orders: razorpay.NewClient(keyID, keySecret).Order}
}

// CreateOrder opens an order. SDK errors carry the gateway's description.
func (r *Razorpay) CreateOrder(_ context.Context, req OrderRequest) (model.Order, error) {
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	body, err := r.orders.Create(map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return model.Order{}, err
	}
	return orderFromMap(body), nil
}

func orderFromMap(m map[string]interface{}) model.Order {
	o := model.Order{
		ID:        str(m["id"]),
		Entity:    str(m["entity"]),
		Amount:    num(m["amount"]),
		AmountDue: num(m["amount_due"]),
		Currency:  str(m["currency"]),
		Receipt:   str(m["receipt"]),
		Status:    str(m["status"]),
		CreatedAt: num(m["created_at"]),
	}
	if notes, ok := m["notes"].(map[string]interface{}); ok {
		o.Notes = make(map[string]string, len(notes))
		for k, v := range notes {
			o.Notes[k] = str(v)
		}
	}
	return o
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// num accepts the float64 produced by encoding/json as well as integer types.
func num(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
