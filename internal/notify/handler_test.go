package notify

import (
	"context"
	"errors"
	"staybook/pkg/events"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"strings"
	"testing"
	"time"
)

type recordingNotifier struct {
	sent []Notification
	fail error
}

func (n *recordingNotifier) Send(_ context.Context, notification Notification) error {
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, notification)
	return nil
}

func testLog() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.JSON,
		Service: "test",
	})
}

func mustMessage(t *testing.T, eventType string, payload any) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage("bk-1", eventType, "test", payload)
	if err != nil {
		t.Fatalf("build message: %v", err)
	}
	return msg
}

func TestHandlerSendsConfirmationNotice(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := EventHandler(testLog(), notifier)

	event := events.BookingEvent{
		BookingID: "bk-1",
		GuestID:   "guest-1",
		Status:    model.StatusConfirmed,
	}
	if err := handler(context.Background(), mustMessage(t, events.TypeBookingConfirmed, event)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	n := notifier.sent[0]
	if n.Recipient != "guest-1" {
		t.Errorf("recipient = %q, want guest-1", n.Recipient)
	}
	if n.Subject != "Booking confirmed" {
		t.Errorf("subject = %q", n.Subject)
	}
}

func TestHandlerDistinguishesExpiryFromUserCancel(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := EventHandler(testLog(), notifier)

	expired := events.BookingEvent{
		BookingID:    "bk-1",
		GuestID:      "guest-1",
		Status:       model.StatusCancelled,
		CancelReason: model.CancelExpired,
	}
	userCancel := events.BookingEvent{
		BookingID:    "bk-2",
		GuestID:      "guest-1",
		Status:       model.StatusCancelled,
		CancelReason: model.CancelUserRequested,
	}

	if err := handler(context.Background(), mustMessage(t, events.TypeBookingCancelled, expired)); err != nil {
		t.Fatal(err)
	}
	if err := handler(context.Background(), mustMessage(t, events.TypeBookingCancelled, userCancel)); err != nil {
		t.Fatal(err)
	}

	if notifier.sent[0].Subject != "Booking expired" {
		t.Errorf("expired subject = %q", notifier.sent[0].Subject)
	}
	if notifier.sent[1].Subject != "Booking cancelled" {
		t.Errorf("user cancel subject = %q", notifier.sent[1].Subject)
	}
}

func TestHandlerFormatsReminder(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := EventHandler(testLog(), notifier)

	deadline := time.Date(2026, 9, 3, 12, 0, 0, 0, time.UTC)
	reminder := events.ReminderDue{
		BookingID:       "bk-1",
		GuestID:         "guest-1",
		PaymentDeadline: deadline,
	}
	if err := handler(context.Background(), mustMessage(t, events.TypeReminderDue, reminder)); err != nil {
		t.Fatal(err)
	}

	if len(notifier.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0].Body, "bk-1") {
		t.Errorf("reminder body missing booking ID: %q", notifier.sent[0].Body)
	}
}

func TestHandlerDropsUnknownEventType(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := EventHandler(testLog(), notifier)

	if err := handler(context.Background(), mustMessage(t, "booking.teleported", struct{}{})); err != nil {
		t.Fatalf("unknown event should be dropped, got %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifier.sent))
	}
}

func TestHandlerMarksMalformedPayloadPermanent(t *testing.T) {
	notifier := &recordingNotifier{}
	handler := EventHandler(testLog(), notifier)

	msg := mustMessage(t, events.TypeBookingConfirmed, struct{}{})
	msg.Value = []byte("{not json")

	err := handler(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error for malformed payload")
	}
	var perm *kafka.PermanentError
	if !errors.As(err, &perm) {
		t.Errorf("expected PermanentError, got %T", err)
	}
}
