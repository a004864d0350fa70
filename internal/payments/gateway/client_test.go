package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLog() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func TestCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment-intents", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req createIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(48000), req.Amount)
		assert.Equal(t, "USD", req.Currency)
		assert.Equal(t, "bk-1", req.Metadata["booking_id"])

		json.NewEncoder(w).Encode(Intent{
			ID:           "pi_123",
			ClientSecret: "secret_abc",
			Amount:       req.Amount,
			Currency:     req.Currency,
			Status:       IntentStatusRequiresPayment,
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(&ClientConfig{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second}, testLog())

	intent, err := g.CreateIntent(context.Background(), "bk-1", 48000, "USD")
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "secret_abc", intent.ClientSecret)
	assert.False(t, intent.Succeeded())
}

func TestRetrieveOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment-intents/pi_123", r.URL.Path)
		json.NewEncoder(w).Encode(Intent{
			ID:     "pi_123",
			Status: IntentStatusSucceeded,
		})
	}))
	defer srv.Close()

	g := NewHTTPGateway(&ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, testLog())

	intent, err := g.RetrieveOutcome(context.Background(), "pi_123")
	require.NoError(t, err)
	assert.True(t, intent.Succeeded())
}

func TestRetrieveOutcomeNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := NewHTTPGateway(&ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, testLog())

	_, err := g.RetrieveOutcome(context.Background(), "pi_missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestProviderErrorMapsToGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewHTTPGateway(&ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, testLog())

	_, err := g.CreateIntent(context.Background(), "bk-1", 100, "USD")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeGateway))
}

func TestFakeGatewayLifecycle(t *testing.T) {
	g := NewFakeGateway()

	intent, err := g.CreateIntent(context.Background(), "bk-1", 100, "USD")
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)

	outcome, err := g.RetrieveOutcome(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.False(t, outcome.Succeeded())
	assert.Empty(t, outcome.ClientSecret)

	g.SetStatus(intent.ID, IntentStatusSucceeded)
	outcome, err = g.RetrieveOutcome(context.Background(), intent.ID)
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())
}
