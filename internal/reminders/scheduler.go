package reminders

import (
	"context"
	"staybook/pkg/config"
	"staybook/pkg/model"
	"time"
)

// ReminderSender is the slice of the booking service the scheduler drives.
type ReminderSender interface {
	FindDueReminders(ctx context.Context, now time.Time, limit int) ([]*model.PaymentDeadlineRecord, error)
	SendReminderIfNeeded(ctx context.Context, record *model.PaymentDeadlineRecord) (bool, error)
}

// Scheduler periodically finds pending bookings that have entered the
// reminder window and hands each to the service, which enforces the
// at-most-once send. The scheduler itself is stateless, so any number of
// instances can run concurrently.
type Scheduler struct {
	svc ReminderSender
	cfg *config.Config
}

func New(svc ReminderSender, cfg *config.Config) *Scheduler {
	return &Scheduler{svc: svc, cfg: cfg}
}

// Run blocks, scanning every SweepInterval until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.cfg.Log.Info("Reminder scheduler started",
		"interval", s.cfg.SweepInterval,
		"lead", s.cfg.ReminderLead,
	)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.cfg.Log.Info("Reminder scheduler stopped")
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan runs a single reminder pass. Per-record failures are logged and
// skipped; the record stays due and the next pass retries it.
func (s *Scheduler) Scan(ctx context.Context) {
	now := time.Now().UTC()

	due, err := s.svc.FindDueReminders(ctx, now, s.cfg.SweepBatchSize)
	if err != nil {
		s.cfg.Log.Error("Failed to find due reminders", "error", err)
		return
	}

	var sent int
	for _, record := range due {
		ok, err := s.svc.SendReminderIfNeeded(ctx, record)
		if err != nil {
			s.cfg.Log.Error("Failed to send reminder", "booking_id", record.BookingID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}

	if len(due) > 0 {
		s.cfg.Log.Info("Reminder scan completed", "due", len(due), "sent", sent)
	}
}
