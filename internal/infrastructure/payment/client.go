package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yourorg/knowledgehub/internal/reliability/circuitbreaker"
	"github.com/yourorg/knowledgehub/internal/reliability/retry"
)

// Session is a checkout session created at the external payment provider.
// The token is opaque to the engine: it is carried on purchase records for
// display and logging only.
type Session struct {
	ID          string `json:"id"`
	RedirectURL string `json:"redirectUrl"`
}

// CheckoutRequest describes the single line item of a checkout.
type CheckoutRequest struct {
	ItemName   string  `json:"itemName"`
	AmountUnit int64   `json:"amountUnit"` // price in cents
	Currency   string  `json:"currency"`
	SuccessURL string  `json:"successUrl"`
	CancelURL  string  `json:"cancelUrl"`
	Price      float64 `json:"-"`
}

// Client talks to the external checkout provider. When no provider endpoint
// is configured it issues local sessions so the development flow still
// reaches the confirmation callback.
type Client struct {
	endpoint string
	currency string
	httpc    *http.Client
	breaker  *circuitbreaker.CircuitBreaker
	retryCfg *retry.Config
	logger   *slog.Logger
}

// NewClient creates a payment client. endpoint may be empty (local mode).
func NewClient(endpoint, currency string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: endpoint,
		currency: currency,
		httpc:    &http.Client{Timeout: 10 * time.Second},
		breaker:  circuitbreaker.New(5, 2, 30*time.Second),
		retryCfg: retry.DefaultConfig(),
		logger:   logger,
	}
}

// CreateCheckoutSession creates a checkout session for one lesson or cursus.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	if req.Currency == "" {
		req.Currency = c.currency
	}
	// Round, don't truncate: 19.99 has no exact float64 form and would
	// otherwise come out as 1998 cents.
	req.AmountUnit = int64(math.Round(req.Price * 100))

	if c.endpoint == "" {
		session := &Session{
			ID:          "local-" + uuid.New().String(),
			RedirectURL: req.SuccessURL,
		}
		c.logger.Info("payment provider not configured, issued local session",
			slog.String("session_id", session.ID),
			slog.String("item", req.ItemName),
		)
		return session, nil
	}

	if !c.breaker.Allow() {
		return nil, circuitbreaker.ErrOpen
	}

	session, err := retry.Do(ctx, c.retryCfg, c.logger, "create checkout session", func(ctx context.Context) (*Session, error) {
		return c.createSession(ctx, req)
	})
	if err != nil {
		c.breaker.RecordFailure()
		return nil, err
	}

	c.breaker.RecordSuccess()
	return session, nil
}

func (c *Client) createSession(ctx context.Context, req CheckoutRequest) (*Session, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal checkout request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build checkout request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("checkout provider returned status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	return &session, nil
}
