package model

import (
	"time"
)

const PaymentStatusPaid = "paid"

// PaymentRecord is written once per successful charge, as a side effect of
// confirming a booking. The booking_id carries a unique index so a record
// can never be created twice for the same booking.
type PaymentRecord struct {
	BookingID string    `json:"booking_id" bson:"booking_id"`
	IntentID  string    `json:"intent_id" bson:"intent_id"`
	Amount    int64     `json:"amount" bson:"amount"`
	Currency  string    `json:"currency" bson:"currency"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
