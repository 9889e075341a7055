package payment

import (
	"net/mail"
	"strings"

	"checkout-service/internal/payload"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var (
	ErrMissingField  = errors.New("missing required field")
	ErrInvalidAmount = errors.New("amount must be a positive number")
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrInvalidPhone  = errors.New("phone must contain digits only")
)

// Form is the payer input exactly as typed.
type Form struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Amount string `json:"amount"`
}

type Request struct {
	Name   string
	Email  string
	Phone  string
	Amount decimal.Decimal
}

// ParseRequest trims and validates form input. Amounts that are empty,
// non-numeric, zero or negative are rejected rather than sent to the gateway.
func ParseRequest(f Form) (Request, error) {
	raw := strings.TrimSpace(f.Amount)
	if raw == "" {
		return Request{}, errors.Wrap(ErrMissingField, "amount")
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return Request{}, errors.Wrapf(ErrInvalidAmount, "amount %q", raw)
	}

	req := Request{
		Name:   strings.TrimSpace(f.Name),
		Email:  strings.TrimSpace(f.Email),
		Phone:  strings.TrimPrefix(strings.TrimSpace(f.Phone), "+"),
		Amount: amount,
	}
	if addr, err := mail.ParseAddress(req.Email); err == nil {
		req.Email = addr.Address
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

func (r Request) Validate() error {
	if r.Name == "" {
		return errors.Wrap(ErrMissingField, "name")
	}
	if r.Email == "" {
		return errors.Wrap(ErrMissingField, "email")
	}
	if r.Phone == "" {
		return errors.Wrap(ErrMissingField, "phone")
	}
	// Only a bare address is sent; display-name forms are reduced by ParseRequest.
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return errors.Wrapf(ErrInvalidEmail, "email %q", r.Email)
	}
	for _, c := range r.Phone {
		if c < '0' || c > '9' {
			return errors.Wrapf(ErrInvalidPhone, "phone %q", r.Phone)
		}
	}
	if !r.Amount.IsPositive() {
		return errors.Wrapf(ErrInvalidAmount, "amount %s", r.Amount)
	}
	return nil
}

func (r Request) toPayload() payload.CreatePayment {
	return payload.CreatePayment{
		Phone:  r.Phone,
		Amount: r.Amount.InexactFloat64(),
		Name:   r.Name,
		Email:  r.Email,
	}
}

// IsInvalidInput reports whether err was caused by payer input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidPhone)
}
