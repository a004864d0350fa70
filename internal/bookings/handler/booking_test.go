package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"staybook/internal/payments/gateway"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFn       func(ctx context.Context, b *model.Booking) error
	getByIDFn      func(ctx context.Context, id string) (*model.Booking, error)
	listByGuestFn  func(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error)
	remainingFn    func(ctx context.Context, id string) (*model.Booking, model.RemainingTime, error)
	createIntentFn func(ctx context.Context, id string) (*gateway.Intent, error)
	confirmFn      func(ctx context.Context, id, intentID string) (*model.Booking, error)
	cancelFn       func(ctx context.Context, id string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, b *model.Booking) error {
	return m.createFn(ctx, b)
}

func (m *mockBookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockBookingService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	return m.listByGuestFn(ctx, guestID, limit, offset)
}

func (m *mockBookingService) Remaining(ctx context.Context, id string) (*model.Booking, model.RemainingTime, error) {
	return m.remainingFn(ctx, id)
}

func (m *mockBookingService) CreatePaymentIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	return m.createIntentFn(ctx, id)
}

func (m *mockBookingService) Confirm(ctx context.Context, id, intentID string) (*model.Booking, error) {
	return m.confirmFn(ctx, id, intentID)
}

func (m *mockBookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	return m.cancelFn(ctx, id)
}

func (m *mockBookingService) FindExpired(context.Context, time.Time, int) ([]*model.Booking, error) {
	return nil, nil
}

func (m *mockBookingService) ExpireBooking(context.Context, string) (bool, error) {
	return false, nil
}

func (m *mockBookingService) FindDueReminders(context.Context, time.Time, int) ([]*model.PaymentDeadlineRecord, error) {
	return nil, nil
}

func (m *mockBookingService) SendReminderIfNeeded(context.Context, *model.PaymentDeadlineRecord) (bool, error) {
	return false, nil
}

func newRouter(svc *mockBookingService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	return router
}

func pendingBooking(id string) *model.Booking {
	deadline := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	return &model.Booking{
		ID:              id,
		ListingID:       "listing-17",
		GuestID:         "guest-42",
		Status:          model.StatusPending,
		TotalAmount:     48000,
		Currency:        "USD",
		PaymentDeadline: &deadline,
	}
}

func TestCreateReturnsCreated(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(_ context.Context, b *model.Booking) error {
			b.ID = "bk-1"
			b.Status = model.StatusPending
			return nil
		},
	}
	router := newRouter(svc)

	body := bytes.NewBufferString(`{"listing_id":"listing-17","guest_id":"guest-42","guests":2}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.ID != "bk-1" || resp.Data.Status != model.StatusPending {
		t.Errorf("response = %+v", resp.Data)
	}
}

func TestCreateRejectsMalformedBody(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(context.Context, *model.Booking) error {
			t.Fatal("service must not be called on malformed body")
			return nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString("{no"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateMapsValidationErrorTo422(t *testing.T) {
	svc := &mockBookingService{
		createFn: func(context.Context, *model.Booking) error {
			return apperrors.Validation("Booking validation failed", nil)
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc := &mockBookingService{
		getByIDFn: func(_ context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/bk-missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var resp httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != apperrors.CodeNotFound {
		t.Errorf("code = %s", resp.Code)
	}
}

func TestListRequiresGuestID(t *testing.T) {
	svc := &mockBookingService{}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListReturnsPaginated(t *testing.T) {
	svc := &mockBookingService{
		listByGuestFn: func(_ context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error) {
			if guestID != "guest-42" {
				t.Errorf("guest_id = %s", guestID)
			}
			return []*model.Booking{pendingBooking("bk-1")}, 1, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?guest_id=guest-42&limit=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp httputil.PaginatedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.TotalCount != 1 || resp.Limit != 5 {
		t.Errorf("pagination = %+v", resp)
	}
}

func TestRemainingReportsCountdown(t *testing.T) {
	svc := &mockBookingService{
		remainingFn: func(_ context.Context, id string) (*model.Booking, model.RemainingTime, error) {
			return pendingBooking(id), model.RemainingTime{Remaining: 90 * time.Minute}, nil
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/bk-1/remaining", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data remainingResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.RemainingSeconds != 5400 || resp.Data.Expired {
		t.Errorf("remaining = %+v", resp.Data)
	}
}

func TestConfirmPassesIntentID(t *testing.T) {
	svc := &mockBookingService{
		confirmFn: func(_ context.Context, id, intentID string) (*model.Booking, error) {
			if intentID != "pi_123" {
				t.Errorf("intent_id = %s", intentID)
			}
			b := pendingBooking(id)
			b.Status = model.StatusConfirmed
			return b, nil
		},
	}
	router := newRouter(svc)

	body := bytes.NewBufferString(`{"intent_id":"pi_123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/bk-1/confirm", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestConfirmExpiredMapsTo410(t *testing.T) {
	svc := &mockBookingService{
		confirmFn: func(_ context.Context, id, _ string) (*model.Booking, error) {
			return nil, apperrors.Expired("Payment window for booking " + id + " has closed")
		},
	}
	router := newRouter(svc)

	body := bytes.NewBufferString(`{"intent_id":"pi_123"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/bk-1/confirm", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusGone {
		t.Fatalf("status = %d, want 410", rec.Code)
	}
}

func TestCancelConflictMapsTo409(t *testing.T) {
	svc := &mockBookingService{
		cancelFn: func(context.Context, string) (*model.Booking, error) {
			return nil, apperrors.InvalidState("Booking is confirmed and cannot be cancelled")
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/bk-1/cancel", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestPaymentIntentGatewayFailureMapsTo502(t *testing.T) {
	svc := &mockBookingService{
		createIntentFn: func(context.Context, string) (*gateway.Intent, error) {
			return nil, apperrors.Gateway("Payment provider unreachable", nil)
		},
	}
	router := newRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/bk-1/payment-intent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}
