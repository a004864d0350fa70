package gateway

import (
	"context"
	apperrors "staybook/pkg/errors"
	"sync"

	"github.com/google/uuid"
)

// FakeGateway is an in-memory provider used in tests and local runs where
// no real payment backend is configured. Intents start in
// requires_payment; tests drive them to a terminal status explicitly.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]*Intent
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{
		intents: make(map[string]*Intent),
	}
}

func (g *FakeGateway) CreateIntent(_ context.Context, bookingID string, amount int64, currency string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent := &Intent{
		ID:           "pi_" + uuid.New().String(),
		ClientSecret: "secret_" + uuid.New().String(),
		Amount:       amount,
		Currency:     currency,
		Status:       IntentStatusRequiresPayment,
	}
	g.intents[intent.ID] = intent

	copied := *intent
	return &copied, nil
}

func (g *FakeGateway) RetrieveOutcome(_ context.Context, intentID string) (*Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[intentID]
	if !ok {
		return nil, apperrors.NotFound("Payment intent")
	}

	copied := *intent
	copied.ClientSecret = ""
	return &copied, nil
}

// SetStatus moves an existing intent to the given status.
func (g *FakeGateway) SetStatus(intentID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if intent, ok := g.intents[intentID]; ok {
		intent.Status = status
	}
}
