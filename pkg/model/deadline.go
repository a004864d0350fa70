package model

import (
	"time"
)

// PaymentDeadlineRecord is the one-to-one shadow of a pending booking used
// for reminder bookkeeping. ReminderSent transitions false -> true at most
// once and is never reset while the booking is still pending.
type PaymentDeadlineRecord struct {
	BookingID       string    `json:"booking_id" bson:"booking_id"`
	PaymentDeadline time.Time `json:"payment_deadline" bson:"payment_deadline"`
	ReminderSent    bool      `json:"reminder_sent" bson:"reminder_sent"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}
