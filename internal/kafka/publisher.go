package kafka

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"checkout-service/internal/message"
	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

var (
	publishSuccessCounter = metrics.GetOrCreateCounter(`kafka_writer_total{result="success",type="payment_outcome"}`)
	publishErrorCounter   = metrics.GetOrCreateCounter(`kafka_writer_total{result="publish_error",type="payment_outcome"}`)
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Publisher struct {
	writer MessageWriter
	logger *slog.Logger
}

func NewPublisher(writer MessageWriter, logger *slog.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, outcome message.PaymentOutcome) error {
	msg, err := toKafkaMessage(outcome)
	if err != nil {
		publishErrorCounter.Inc()
		return err
	}

	p.logger.DebugContext(ctx, "Publishing payment outcome", "orderId", outcome.OrderID, "state", outcome.State)

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		publishErrorCounter.Inc()
		return errors.Wrap(err, "write payment outcome")
	}

	publishSuccessCounter.Inc()
	return nil
}

func (p *Publisher) Close() error {
	if closer, ok := p.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func toKafkaMessage(outcome message.PaymentOutcome) (kafka.Message, error) {
	value, err := json.Marshal(outcome)
	if err != nil {
		return kafka.Message{}, errors.Wrap(err, "encode payment outcome")
	}

	return kafka.Message{
		// order id as key keeps outcomes of one order on one partition
		Key:   []byte(outcome.OrderID),
		Value: value,
	}, nil
}
