package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"checkout-service/internal/config"
	"checkout-service/internal/logging"
	"checkout-service/internal/message"
	"checkout-service/internal/payload"
	"checkout-service/internal/session"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

var pollDurationHistogram = metrics.GetOrCreateHistogram(`payment_poll_duration_milliseconds`)

type StatusChecker interface {
	PaymentStatus(ctx context.Context, orderID string) (*payload.StatusResult, error)
}

type OutcomePublisher interface {
	Publish(ctx context.Context, outcome message.PaymentOutcome) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, message.PaymentOutcome) error { return nil }

// Poller queries the gateway for an order's status on a fixed period until
// the payment completes, the attempts run out, a request fails or the
// context is cancelled.
type Poller struct {
	checker     StatusChecker
	publisher   OutcomePublisher
	interval    time.Duration
	maxAttempts int
	redirectURL string
	logger      *slog.Logger
}

func NewPoller(checker StatusChecker, publisher OutcomePublisher, cfg config.Poller, redirectURL string, logger *slog.Logger) *Poller {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Poller{
		checker:     checker,
		publisher:   publisher,
		interval:    cfg.Interval(),
		maxAttempts: cfg.MaxAttempts,
		redirectURL: redirectURL,
		logger:      logger,
	}
}

// Poll blocks until a terminal state is reached and returns it. Requests are
// never overlapped: ticks that fire while a request is in flight are dropped.
func (p *Poller) Poll(ctx context.Context, sess *session.Session, orderID string) session.State {
	startTime := time.Now()
	ctx = logging.AppendCtx(ctx, slog.String("orderId", orderID))
	ctx = logging.AppendCtx(ctx, slog.String("runId", uuid.New().String()))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	sess.SetState(session.StatePolling)
	p.logger.InfoContext(ctx, "Starting payment status polling", "interval", p.interval, "maxAttempts", p.maxAttempts)

	attempts := 0
	// record runs after the session shows its terminal state; the publish may
	// block for up to publishTimeout.
	record := func(state session.State) session.State {
		pollDurationHistogram.Update(float64(time.Since(startTime).Milliseconds()))
		metrics.GetOrCreateCounter(fmt.Sprintf(`payment_polls_total{result=%q}`, state)).Inc()
		p.publish(ctx, sess, orderID, state, attempts)
		p.logger.InfoContext(ctx, "Payment status polling finished", "state", state, "attempts", attempts)
		return state
	}
	finish := func(state session.State, status string) session.State {
		sess.Finish(state, status)
		return record(state)
	}

	for {
		select {
		case <-ctx.Done():
			return finish(session.StateCancelled, StatusCancelled)
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return finish(session.StateCancelled, StatusCancelled)
		}

		attempts++
		sess.SetAttempts(attempts)

		result, err := p.checker.PaymentStatus(ctx, orderID)
		if err != nil {
			if ctx.Err() != nil {
				return finish(session.StateCancelled, StatusCancelled)
			}
			p.logger.ErrorContext(ctx, "Error polling payment status", "attempt", attempts, "error", err)
			return finish(session.StateErrored, StatusPollingFailed)
		}

		status := result.PaymentStatus()
		p.logger.InfoContext(ctx, "Payment status", "attempt", attempts, "status", status)

		switch {
		case status == gatewayCompleted:
			sess.Complete(statusCompleted(p.redirectURL), p.redirectURL)
			return record(session.StateCompleted)
		case attempts >= p.maxAttempts:
			p.logger.WarnContext(ctx, "Max attempts reached for payment status")
			return finish(session.StateExhausted, StatusExhausted)
		default:
			sess.SetStatus(statusCurrent(status))
		}
	}
}

func (p *Poller) publish(ctx context.Context, sess *session.Session, orderID string, state session.State, attempts int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	outcome := message.PaymentOutcome{
		ID:         uuid.New().String(),
		SessionID:  sess.ID(),
		OrderID:    orderID,
		State:      string(state),
		Attempts:   attempts,
		FinishedAt: time.Now().UTC(),
	}
	if err := p.publisher.Publish(ctx, outcome); err != nil {
		p.logger.ErrorContext(ctx, "Error publishing payment outcome", "error", err)
	}
}
