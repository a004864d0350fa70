package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.HTTPStatus)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("store connection failed")
	wrapped := Wrap(originalErr, CodeInternal, "internal error", http.StatusInternalServerError)

	if wrapped.Err != originalErr {
		t.Errorf("expected wrapped error to contain original error")
	}
	if !errors.Is(wrapped, originalErr) {
		t.Errorf("expected errors.Is to unwrap to original error")
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFoundWithID("Booking", "abc"), CodeNotFound, http.StatusNotFound},
		{"validation", Validation("bad input", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"invalid state", InvalidState("booking is cancelled"), CodeInvalidState, http.StatusConflict},
		{"expired", Expired("payment window has closed"), CodeExpired, http.StatusGone},
		{"gateway", Gateway("intent creation failed", errors.New("503")), CodeGateway, http.StatusBadGateway},
		{"persistence", Persistence("store unreachable", errors.New("dial tcp")), CodeUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
			if !IsCode(tt.err, tt.code) {
				t.Errorf("IsCode(%s) returned false", tt.code)
			}
		})
	}
}

func TestAsAppError_PassThrough(t *testing.T) {
	original := Expired("too late")
	converted := AsAppError(original)
	if converted != original {
		t.Error("expected AsAppError to return the same *AppError")
	}
}

func TestAsAppError_WrapsUnknown(t *testing.T) {
	converted := AsAppError(errors.New("boom"))
	if converted.Code != CodeInternal {
		t.Errorf("expected code %s, got %s", CodeInternal, converted.Code)
	}
}
