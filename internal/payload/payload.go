package payload

import (
	"github.com/shopspring/decimal"
)

// CreatePayment is the body of POST /api/payment/create.
type CreatePayment struct {
	Phone  string  `json:"phone"`
	Amount float64 `json:"amount"`
	Name   string  `json:"name"`
	Email  string  `json:"email"`
}

type PaymentData struct {
	TransactionID string          `json:"transaction_id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	Status        string          `json:"status"`
}

type PaymentResult struct {
	Success bool         `json:"success"`
	Message *string      `json:"message,omitempty"`
	Data    *PaymentData `json:"data,omitempty"`
}

// StatusRequest is the body of POST /api/payment/status.
type StatusRequest struct {
	OrderID string `json:"order_id"`
}

type StatusData struct {
	Status string `json:"status"`
}

// StatusResult is loosely shaped on the gateway side; every level may be absent.
type StatusResult struct {
	Data *StatusData `json:"data,omitempty"`
}

// PaymentStatus returns the reported status, or "" when the response carries none.
func (r *StatusResult) PaymentStatus() string {
	if r == nil || r.Data == nil {
		return ""
	}
	return r.Data.Status
}
