// Package gateway implements the HTTP client for the upstream payment
// gateway: deposit creation and transaction status lookup.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"github.com/grandbet/deposit-service/internal/domain/entities"
	"github.com/grandbet/deposit-service/pkg/circuitbreaker"
	"github.com/grandbet/deposit-service/pkg/metrics"
)

const requestTimeout = 30 * time.Second

// Config holds gateway client configuration
type Config struct {
	BaseURL string
	APIKey  string
}

// Client talks to the payment gateway over HTTP behind a circuit breaker
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewClient creates a gateway client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	breakerCfg := circuitbreaker.DefaultConfig("payment-gateway")
	breakerCfg.OnStateChange = func(from, to string) {
		logger.Warn("Payment gateway circuit breaker state change",
			zap.String("from", from), zap.String("to", to))
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: requestTimeout},
		breaker: circuitbreaker.New(breakerCfg),
		logger:  logger,
	}
}

// CreateDeposit submits a deposit creation request
func (c *Client) CreateDeposit(ctx context.Context, req *entities.GatewayDepositRequest) (*entities.GatewayDepositResponse, error) {
	var resp entities.GatewayDepositResponse
	if err := c.do(ctx, http.MethodPost, "/v1/deposits", req, &resp, "create_deposit"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTransactionStatus fetches the gateway's view of a transaction
func (c *Client) GetTransactionStatus(ctx context.Context, transactionID string) (*entities.GatewayTransactionStatus, error) {
	var resp entities.GatewayTransactionStatus
	path := fmt.Sprintf("/v1/transactions/%s", transactionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, "transaction_status"); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs one HTTP exchange through the circuit breaker
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, operation string) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", operation, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, payload)
	if err != nil {
		return fmt.Errorf("build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	status := "error"
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	}()

	return c.breaker.Execute(ctx, func() error {
		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%s: %w", operation, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("%s: read response: %w", operation, err)
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			c.logger.Warn("Gateway request rejected",
				zap.String("operation", operation),
				zap.Int("status", resp.StatusCode))
			return fmt.Errorf("%s: gateway returned status %d", operation, resp.StatusCode)
		}

		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", operation, err)
		}
		status = "ok"
		return nil
	})
}
