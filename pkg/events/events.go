package events

import (
	"time"

	"staybook/pkg/model"
)

// Event types carried in the event-type message header.
const (
	TypeBookingCreated   = "booking.created"
	TypeBookingConfirmed = "booking.confirmed"
	TypeBookingCancelled = "booking.cancelled"
	TypeReminderDue      = "reminder.due"
)

// BookingEvent is published on every lifecycle transition, keyed by
// booking ID.
type BookingEvent struct {
	BookingID    string              `json:"booking_id"`
	ListingID    string              `json:"listing_id"`
	GuestID      string              `json:"guest_id"`
	Status       model.BookingStatus `json:"status"`
	CancelReason model.CancelReason  `json:"cancel_reason,omitempty"`
	TotalAmount  int64               `json:"total_amount"`
	Currency     string              `json:"currency"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// ReminderDue is published on the reminder topic when a pending booking
// enters the reminder window; the notifier service turns it into a
// guest-facing message.
type ReminderDue struct {
	BookingID       string    `json:"booking_id"`
	GuestID         string    `json:"guest_id"`
	ListingID       string    `json:"listing_id"`
	PaymentDeadline time.Time `json:"payment_deadline"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func FromBooking(b *model.Booking, occurredAt time.Time) BookingEvent {
	return BookingEvent{
		BookingID:    b.ID,
		ListingID:    b.ListingID,
		GuestID:      b.GuestID,
		Status:       b.Status,
		CancelReason: b.CancelReason,
		TotalAmount:  b.TotalAmount,
		Currency:     b.Currency,
		OccurredAt:   occurredAt,
	}
}
