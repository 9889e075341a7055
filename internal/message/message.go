package message

import (
	"time"
)

// PaymentOutcome is published once per poll loop when it reaches a terminal state.
type PaymentOutcome struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	OrderID    string    `json:"orderId"`
	State      string    `json:"state"`
	Attempts   int       `json:"attempts"`
	FinishedAt time.Time `json:"finishedAt"`
}
