package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Gateway struct {
	URL       string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	TimeoutMs int    `mapstructure:"timeout-ms"`
}

type Poller struct {
	IntervalMs  int `mapstructure:"interval-ms"`
	MaxAttempts int `mapstructure:"max-attempts"`
}

type Checkout struct {
	RedirectURL string `mapstructure:"redirect-url"`
}

type KafkaBroker struct {
	URL string `mapstructure:"url"`
}

type KafkaTopic struct {
	PaymentOutcomes string `mapstructure:"payment-outcomes"`
}

type KafkaWriter struct {
	BatchSize      int `mapstructure:"batch-size"`
	BatchTimeoutMs int `mapstructure:"batch-timeout-ms"`
}

type Kafka struct {
	Broker KafkaBroker `mapstructure:"broker"`
	Topic  KafkaTopic  `mapstructure:"topic"`
	Writer KafkaWriter `mapstructure:"writer"`
}

type Server struct {
	Port           string `mapstructure:"port"`
	SessionIdleMs  int    `mapstructure:"session-idle-ms"`
	SessionSweepMs int    `mapstructure:"session-sweep-ms"`
}

type Metrics struct {
	URL          string `mapstructure:"url"`
	IntervalMs   int    `mapstructure:"interval-ms"`
	CommonLabels string `mapstructure:"common-labels"`
}

type Logs struct {
	URL string `mapstructure:"url"`
}

type Config struct {
	Gateway  Gateway  `mapstructure:"gateway"`
	Poller   Poller   `mapstructure:"poller"`
	Checkout Checkout `mapstructure:"checkout"`
	Kafka    Kafka    `mapstructure:"kafka"`
	Server   Server   `mapstructure:"server"`
	Metrics  Metrics  `mapstructure:"metrics"`
	Logs     Logs     `mapstructure:"logs"`
}

var defaults = map[string]any{
	"gateway.url":                   "https://sonicpesa.com",
	"gateway.token":                 "",
	"gateway.timeout-ms":            10_000,
	"poller.interval-ms":            5_000,
	"poller.max-attempts":           10,
	"checkout.redirect-url":         "https://videox.com",
	"kafka.broker.url":              "",
	"kafka.topic.payment-outcomes":  "payment-outcomes",
	"kafka.writer.batch-size":       1,
	"kafka.writer.batch-timeout-ms": 100,
	"server.port":                   "8080",
	"server.session-idle-ms":        1_800_000,
	"server.session-sweep-ms":       60_000,
	"metrics.url":                   "",
	"metrics.interval-ms":           10_000,
	"metrics.common-labels":         `service="checkout-service"`,
	"logs.url":                      "",
}

// LoadConfig reads config.yaml from path when it exists, then lets
// environment variables (GATEWAY_TOKEN, POLLER_INTERVAL_MS, ...) override it.
// A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Gateway.URL == "" {
		return errors.New("gateway.url is required")
	}
	if c.Gateway.Token == "" {
		return errors.New("gateway.token is required (set GATEWAY_TOKEN)")
	}
	if c.Gateway.TimeoutMs <= 0 {
		return errors.Errorf("gateway.timeout-ms must be positive, got %d", c.Gateway.TimeoutMs)
	}
	if c.Poller.IntervalMs <= 0 {
		return errors.Errorf("poller.interval-ms must be positive, got %d", c.Poller.IntervalMs)
	}
	if c.Poller.MaxAttempts <= 0 {
		return errors.Errorf("poller.max-attempts must be positive, got %d", c.Poller.MaxAttempts)
	}
	if c.Server.SessionIdleMs <= 0 {
		return errors.Errorf("server.session-idle-ms must be positive, got %d", c.Server.SessionIdleMs)
	}
	if c.Server.SessionSweepMs <= 0 {
		return errors.Errorf("server.session-sweep-ms must be positive, got %d", c.Server.SessionSweepMs)
	}
	return nil
}

func (g Gateway) Timeout() time.Duration {
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

func (p Poller) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

func (s Server) SessionIdle() time.Duration {
	return time.Duration(s.SessionIdleMs) * time.Millisecond
}

func (s Server) SessionSweep() time.Duration {
	return time.Duration(s.SessionSweepMs) * time.Millisecond
}
