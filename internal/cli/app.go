package cli

import (
	"io"
	"log/slog"

	"checkout-service/internal/config"
	"checkout-service/internal/gateway"
	"checkout-service/internal/kafka"
	"checkout-service/internal/payment"
)

type app struct {
	initiator *payment.Initiator
	closers   []io.Closer
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	a := &app{}

	var publisher payment.OutcomePublisher = payment.NopPublisher{}
	if cfg.Kafka.Broker.URL != "" {
		kafkaPublisher := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka), logger)
		a.closers = append(a.closers, kafkaPublisher)
		publisher = kafkaPublisher
	}

	client := gateway.NewClient(cfg.Gateway, logger)
	poller := payment.NewPoller(client, publisher, cfg.Poller, cfg.Checkout.RedirectURL, logger)
	a.initiator = payment.NewInitiator(client, poller, logger)

	return a
}

func (a *app) Close(logger *slog.Logger) {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			logger.Error("Error closing resource", "error", err)
		}
	}
}
