package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"time"
)

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPGateway talks to the payment provider's REST API.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	hc      *http.Client
	logger  *logger.Logger
}

func NewHTTPGateway(cfg *ClientConfig, log *logger.Logger) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		hc: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

type createIntentRequest struct {
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Reference string            `json:"reference"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (g *HTTPGateway) CreateIntent(ctx context.Context, bookingID string, amount int64, currency string) (*Intent, error) {
	body, err := json.Marshal(createIntentRequest{
		Amount:    amount,
		Currency:  currency,
		Reference: bookingID,
		Metadata:  map[string]string{"booking_id": bookingID},
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to encode intent request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payment-intents", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal("Failed to build intent request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	intent, err := g.do(req)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Payment intent created",
		"booking_id", bookingID,
		"intent_id", intent.ID,
		"amount", amount,
		"currency", currency,
	)
	return intent, nil
}

func (g *HTTPGateway) RetrieveOutcome(ctx context.Context, intentID string) (*Intent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payment-intents/"+intentID, nil)
	if err != nil {
		return nil, apperrors.Internal("Failed to build outcome request", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	return g.do(req)
}

func (g *HTTPGateway) do(req *http.Request) (*Intent, error) {
	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, apperrors.Gateway("Payment provider unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, apperrors.Gateway("Failed to read provider response", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("Payment intent")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		g.logger.Warn("Payment provider returned error",
			"status", resp.StatusCode,
			"body", string(body),
		)
		return nil, apperrors.Gateway(
			fmt.Sprintf("Payment provider returned status %d", resp.StatusCode), nil)
	}

	var intent Intent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, apperrors.Gateway("Failed to decode provider response", err)
	}
	if intent.ID == "" {
		return nil, apperrors.Gateway("Provider response missing intent ID", nil)
	}

	return &intent, nil
}
