package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"checkout-service/internal/config"
	"checkout-service/internal/payload"
	"github.com/VictoriaMetrics/metrics"
	"github.com/pkg/errors"
)

const (
	createPath = "/api/payment/create"
	statusPath = "/api/payment/status"

	endpointCreate = "create"
	endpointStatus = "status"

	contentType = "application/json"
)

// ErrStatus is returned when the gateway answers with a non-2xx status.
var ErrStatus = errors.New("gateway error response")

type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *slog.Logger
}

func NewClient(cfg config.Gateway, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.Timeout()},
		logger:  logger,
	}
}

func (c *Client) CreatePayment(ctx context.Context, req payload.CreatePayment) (*payload.PaymentResult, error) {
	var result payload.PaymentResult
	if err := c.post(ctx, endpointCreate, createPath, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PaymentStatus(ctx context.Context, orderID string) (*payload.StatusResult, error) {
	var result payload.StatusResult
	if err := c.post(ctx, endpointStatus, statusPath, payload.StatusRequest{OrderID: orderID}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, endpoint, path string, in, out any) error {
	startTime := time.Now()
	result := "success"
	defer func() {
		metrics.GetOrCreateCounter(fmt.Sprintf(`gateway_requests_total{endpoint=%q,result=%q}`, endpoint, result)).Inc()
		metrics.GetOrCreateHistogram(fmt.Sprintf(`gateway_request_duration_milliseconds{endpoint=%q}`, endpoint)).
			Update(float64(time.Since(startTime).Milliseconds()))
	}()

	body, err := json.Marshal(in)
	if err != nil {
		result = "encode_error"
		return errors.Wrap(err, "encode request")
	}

	url := c.baseURL + path
	c.logger.DebugContext(ctx, "Sending gateway request", "url", url, "body", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		result = "encode_error"
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		result = "transport_error"
		c.logger.ErrorContext(ctx, "Error sending gateway request", "url", url, "error", err)
		return errors.Wrapf(err, "post %s", path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		result = "transport_error"
		c.logger.ErrorContext(ctx, "Error reading gateway response", "url", url, "error", err)
		return errors.Wrapf(err, "read %s response", path)
	}

	c.logger.DebugContext(ctx, "Gateway response", "url", url, "status", resp.Status, "body", string(respBody))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result = "http_error"
		c.logger.WarnContext(ctx, "Received gateway error response", "url", url, "status", resp.Status)
		return errors.Wrapf(ErrStatus, "%s: %s", path, resp.Status)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		result = "decode_error"
		c.logger.ErrorContext(ctx, "Error decoding gateway response", "url", url, "error", err)
		return errors.Wrapf(err, "decode %s response", path)
	}

	return nil
}
