package payment

import (
	"context"
	"fmt"
	"log/slog"

	"checkout-service/internal/logging"
	"checkout-service/internal/payload"
	"checkout-service/internal/session"
	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

// ErrRejected is returned when the gateway answers a create request with
// success=false or without order data.
var ErrRejected = errors.New("payment rejected by gateway")

// ErrBusy is returned when a create request is already in flight for the
// session. The session is left untouched.
var ErrBusy = errors.New("payment already being submitted")

type Gateway interface {
	CreatePayment(ctx context.Context, req payload.CreatePayment) (*payload.PaymentResult, error)
}

type Initiator struct {
	gateway Gateway
	poller  *Poller
	logger  *slog.Logger
}

func NewInitiator(gateway Gateway, poller *Poller, logger *slog.Logger) *Initiator {
	return &Initiator{gateway: gateway, poller: poller, logger: logger}
}

// CreatePayment submits req and, when the gateway accepts it, starts polling
// the returned order in the background. Any poll loop already attached to
// sess is stopped first. The session's loading flag is set for the duration
// of the create call only; a second call while it is set returns ErrBusy.
func (i *Initiator) CreatePayment(ctx context.Context, sess *session.Session, req Request) error {
	ctx = logging.AppendCtx(ctx, slog.String("sessionId", sess.ID()))

	if sess.IsLoading() {
		return i.busy(ctx)
	}
	if err := req.Validate(); err != nil {
		countCreate("invalid")
		sess.SetStatus(statusInvalidInput(err))
		return err
	}

	if !sess.TryBeginLoading() {
		return i.busy(ctx)
	}
	defer sess.SetLoading(false)

	sess.Cancel()
	sess.SetStatus(StatusSubmitting)

	i.logger.InfoContext(ctx, "Creating payment", "amount", req.Amount.String(), "phone", req.Phone)

	result, err := i.gateway.CreatePayment(ctx, req.toPayload())
	if err != nil {
		countCreate("failed")
		i.logger.ErrorContext(ctx, "Error creating payment", "error", err)
		sess.SetStatus(StatusRequestFailed)
		return errors.Wrap(err, "create payment")
	}

	if !result.Success || result.Data == nil {
		countCreate("rejected")
		var gatewayMessage string
		if result.Message != nil {
			gatewayMessage = *result.Message
		}
		i.logger.WarnContext(ctx, "Payment rejected by gateway", "message", gatewayMessage)
		sess.SetStatus(statusRejected(gatewayMessage))
		if gatewayMessage != "" {
			return errors.Wrap(ErrRejected, gatewayMessage)
		}
		return ErrRejected
	}

	countCreate("success")
	orderID := result.Data.OrderID
	i.logger.InfoContext(ctx, "Payment created", "orderId", orderID, "transactionId", result.Data.TransactionID)

	sess.SetOrderID(orderID)
	sess.SetStatus(StatusAwaitingConfirmation)

	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := sess.Track(cancel)
	go func() {
		defer close(done)
		defer cancel()
		i.poller.Poll(pollCtx, sess, orderID)
	}()

	return nil
}

func (i *Initiator) busy(ctx context.Context) error {
	countCreate("busy")
	i.logger.WarnContext(ctx, "Payment already being submitted")
	return ErrBusy
}

func countCreate(result string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`payment_creates_total{result=%q}`, result)).Inc()
}

// Submit parses raw form input and creates the payment. Invalid input is
// reported on the session and never reaches the gateway.
func (i *Initiator) Submit(ctx context.Context, sess *session.Session, form Form) error {
	if sess.IsLoading() {
		return i.busy(logging.AppendCtx(ctx, slog.String("sessionId", sess.ID())))
	}
	req, err := ParseRequest(form)
	if err != nil {
		countCreate("invalid")
		sess.SetStatus(statusInvalidInput(err))
		return err
	}
	return i.CreatePayment(ctx, sess, req)
}
