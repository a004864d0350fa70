package model

import (
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type CancelReason string

const (
	CancelUserRequested CancelReason = "user_requested"
	CancelExpired       CancelReason = "expired"
)

type Booking struct {
	ID              string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ListingID       string        `json:"listing_id" bson:"listing_id" validate:"required"`
	GuestID         string        `json:"guest_id" bson:"guest_id" validate:"required"`
	HostID          string        `json:"host_id,omitempty" bson:"host_id,omitempty"`
	CheckIn         time.Time     `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut        time.Time     `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Guests          int           `json:"guests" bson:"guests" validate:"required,min=1"`
	TotalAmount     int64         `json:"total_amount" bson:"total_amount" validate:"required,min=1"`
	Currency        string        `json:"currency" bson:"currency" validate:"required,len=3"`
	Status          BookingStatus `json:"status" bson:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	PaymentDeadline *time.Time    `json:"payment_deadline,omitempty" bson:"payment_deadline,omitempty"`
	CancelReason    CancelReason  `json:"cancel_reason,omitempty" bson:"cancel_reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at" bson:"created_at"`
}

// Terminal reports whether no further status transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// RemainingTime is the payment countdown exposed to clients polling a
// pending booking.
type RemainingTime struct {
	Remaining time.Duration
	Expired   bool
}

// Seconds returns the remaining duration in whole seconds for JSON payloads.
func (r RemainingTime) Seconds() int64 {
	return int64(r.Remaining / time.Second)
}

// RemainingUntil computes the time left before deadline as seen at now.
// Pure: the deadline is expired for every now at or past it, and the
// remaining duration never increases as now advances.
func RemainingUntil(now, deadline time.Time) RemainingTime {
	if !now.Before(deadline) {
		return RemainingTime{Remaining: 0, Expired: true}
	}
	return RemainingTime{Remaining: deadline.Sub(now), Expired: false}
}
