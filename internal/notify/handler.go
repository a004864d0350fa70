package notify

import (
	"context"
	"fmt"
	"staybook/pkg/events"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/model"
)

// EventHandler turns booking lifecycle and reminder events into guest
// notifications. Unknown event types are dropped without retry: replaying
// them can never succeed.
func EventHandler(log *logger.Logger, notifier Notifier) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch msg.EventType() {
		case events.TypeBookingCreated, events.TypeBookingConfirmed, events.TypeBookingCancelled:
			var event events.BookingEvent
			if err := msg.DecodeValue(&event); err != nil {
				return kafka.Permanent(fmt.Errorf("malformed booking event: %w", err))
			}
			return notifier.Send(ctx, bookingNotification(event))

		case events.TypeReminderDue:
			var reminder events.ReminderDue
			if err := msg.DecodeValue(&reminder); err != nil {
				return kafka.Permanent(fmt.Errorf("malformed reminder event: %w", err))
			}
			return notifier.Send(ctx, reminderNotification(reminder))

		default:
			log.Warn("Dropping event with unknown type",
				"event_type", msg.EventType(),
				"event_id", msg.EventID(),
			)
			return nil
		}
	}
}

func bookingNotification(event events.BookingEvent) Notification {
	n := Notification{
		Recipient: event.GuestID,
		Metadata: map[string]string{
			"booking_id": event.BookingID,
			"listing_id": event.ListingID,
		},
	}

	switch event.Status {
	case model.StatusPending:
		n.Subject = "Booking received"
		n.Body = fmt.Sprintf("Your booking %s is reserved. Complete payment to confirm it.", event.BookingID)
	case model.StatusConfirmed:
		n.Subject = "Booking confirmed"
		n.Body = fmt.Sprintf("Payment received. Your booking %s is confirmed.", event.BookingID)
	case model.StatusCancelled:
		if event.CancelReason == model.CancelExpired {
			n.Subject = "Booking expired"
			n.Body = fmt.Sprintf("Booking %s was cancelled because payment was not completed in time.", event.BookingID)
		} else {
			n.Subject = "Booking cancelled"
			n.Body = fmt.Sprintf("Your booking %s has been cancelled.", event.BookingID)
		}
	default:
		n.Subject = "Booking update"
		n.Body = fmt.Sprintf("Booking %s is now %s.", event.BookingID, event.Status)
	}

	return n
}

func reminderNotification(reminder events.ReminderDue) Notification {
	return Notification{
		Recipient: reminder.GuestID,
		Subject:   "Payment reminder",
		Body: fmt.Sprintf(
			"Booking %s is still awaiting payment. Pay before %s or the booking will be released.",
			reminder.BookingID,
			reminder.PaymentDeadline.Format("Jan 2 15:04 MST"),
		),
		Metadata: map[string]string{
			"booking_id": reminder.BookingID,
			"listing_id": reminder.ListingID,
		},
	}
}
