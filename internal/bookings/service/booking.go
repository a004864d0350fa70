package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	"staybook/internal/payments/gateway"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/events"
	"staybook/pkg/kafka"
	"staybook/pkg/metrics"
	"staybook/pkg/model"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// Publisher is the slice of the Kafka producer the service needs.
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error)
	Remaining(ctx context.Context, id string) (*model.Booking, model.RemainingTime, error)
	CreatePaymentIntent(ctx context.Context, id string) (*gateway.Intent, error)
	Confirm(ctx context.Context, id string, intentID string) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (*model.Booking, error)

	FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error)
	ExpireBooking(ctx context.Context, id string) (bool, error)
	FindDueReminders(ctx context.Context, now time.Time, limit int) ([]*model.PaymentDeadlineRecord, error)
	SendReminderIfNeeded(ctx context.Context, record *model.PaymentDeadlineRecord) (bool, error)
}

type bookingService struct {
	repo         repository.BookingRepository
	deadlineRepo repository.DeadlineRepository
	paymentRepo  repository.PaymentRepository
	validator    *validator.BookingValidator
	gateway      gateway.Gateway
	publisher    Publisher
	reminderPub  Publisher
	redis        *redis.Client
	cfg          *config.Config
	now          func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	deadlineRepo repository.DeadlineRepository,
	paymentRepo repository.PaymentRepository,
	validator *validator.BookingValidator,
	gw gateway.Gateway,
	publisher Publisher,
	reminderPub Publisher,
	redisClient *redis.Client,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:         repo,
		deadlineRepo: deadlineRepo,
		paymentRepo:  paymentRepo,
		validator:    validator,
		gateway:      gw,
		publisher:    publisher,
		reminderPub:  reminderPub,
		redis:        redisClient,
		cfg:          cfg,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) Create(ctx context.Context, booking *model.Booking) error {
	now := s.now()
	s.applyDefaults(booking, now)
	if err := s.validate(booking); err != nil {
		metrics.TrackOperation("create", "rejected")
		return err
	}

	deadline := *booking.PaymentDeadline
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Persistence("Failed to create booking", err)
		}
		record := &model.PaymentDeadlineRecord{
			BookingID:       booking.ID,
			PaymentDeadline: deadline,
			ReminderSent:    false,
			CreatedAt:       now,
		}
		if err := s.deadlineRepo.Create(sessCtx, record); err != nil {
			return apperrors.Persistence("Failed to create deadline record", err)
		}
		return nil
	})
	if err != nil {
		metrics.TrackOperation("create", "error")
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.publishEvent(ctx, events.TypeBookingCreated, booking)
	metrics.TrackOperation("create", "ok")
	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"listing_id", booking.ListingID,
		"guest_id", booking.GuestID,
		"payment_deadline", deadline,
	)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Persistence("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *bookingService) ListByGuest(ctx context.Context, guestID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if guestID == "" {
		return nil, 0, apperrors.InvalidInput("Guest ID cannot be empty")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByGuest(ctx, guestID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "guest_id", guestID, "error", errCount)
			errCount = apperrors.Persistence("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByGuest(ctx, guestID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "guest_id", guestID, "error", errFind)
			errFind = apperrors.Persistence("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// Remaining reports the time left in the payment window. The answer is
// computed against the stored deadline at read time, so two calls can
// disagree only in the direction of less time remaining.
func (s *bookingService) Remaining(ctx context.Context, id string) (*model.Booking, model.RemainingTime, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, model.RemainingTime{}, err
	}

	if booking.Status != model.StatusPending {
		return nil, model.RemainingTime{}, apperrors.InvalidState(
			fmt.Sprintf("Booking is %s; only pending bookings have a payment countdown", booking.Status))
	}
	if booking.PaymentDeadline == nil {
		return nil, model.RemainingTime{}, apperrors.Internal("Pending booking has no payment deadline", nil)
	}

	return booking, model.RemainingUntil(s.now(), *booking.PaymentDeadline), nil
}

func (s *bookingService) CreatePaymentIntent(ctx context.Context, id string) (*gateway.Intent, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireLivePending(booking); err != nil {
		metrics.TrackOperation("payment_intent", "rejected")
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, booking.ID, booking.TotalAmount, booking.Currency)
	if err != nil {
		metrics.TrackOperation("payment_intent", "error")
		s.cfg.Log.Error("Failed to create payment intent", "id", id, "error", err)
		return nil, err
	}

	metrics.TrackOperation("payment_intent", "ok")
	return intent, nil
}

// Confirm settles a booking against a payment intent. The gateway is
// always consulted first: a confirm request is a claim, and only the
// provider's recorded outcome is trusted.
func (s *bookingService) Confirm(ctx context.Context, id string, intentID string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if intentID == "" {
		return nil, apperrors.InvalidInput("Payment intent ID cannot be empty")
	}

	intent, err := s.gateway.RetrieveOutcome(ctx, intentID)
	if err != nil {
		metrics.TrackOperation("confirm", "gateway_error")
		return nil, err
	}
	if !intent.Succeeded() {
		metrics.TrackOperation("confirm", "rejected")
		return nil, apperrors.InvalidState(
			fmt.Sprintf("Payment intent %s is %s; confirmation requires a settled payment", intentID, intent.Status))
	}

	now := s.now()
	booking, err := s.repo.ConfirmPending(ctx, id, now)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		if errors.Is(err, bookingserrors.ErrNotPending) {
			return s.resolveFailedConfirm(ctx, id, intent)
		}
		metrics.TrackOperation("confirm", "error")
		return nil, apperrors.Persistence("Failed to confirm booking", err)
	}

	if err := s.recordPayment(ctx, booking, intent); err != nil {
		metrics.TrackOperation("confirm", "error")
		return nil, err
	}

	s.publishEvent(ctx, events.TypeBookingConfirmed, booking)
	metrics.TrackOperation("confirm", "ok")
	s.cfg.Log.Info("Booking confirmed", "id", booking.ID, "intent_id", intent.ID)
	return booking, nil
}

// resolveFailedConfirm classifies a conditional confirm that matched no
// document. A booking already confirmed is treated as a repeat of the same
// request; the payment record insert is re-attempted so a crash between
// status flip and record write heals on retry.
func (s *bookingService) resolveFailedConfirm(ctx context.Context, id string, intent *gateway.Intent) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		metrics.TrackOperation("confirm", "not_found")
		return nil, err
	}

	switch booking.Status {
	case model.StatusConfirmed:
		if err := s.recordPayment(ctx, booking, intent); err != nil {
			return nil, err
		}
		metrics.TrackOperation("confirm", "idempotent")
		s.cfg.Log.Info("Confirm repeated on already-confirmed booking", "id", id)
		return booking, nil

	case model.StatusPending:
		metrics.TrackOperation("confirm", "expired")
		return nil, apperrors.Expired(
			fmt.Sprintf("Payment window for booking %s has closed", id))

	default:
		metrics.TrackOperation("confirm", "invalid_state")
		return nil, apperrors.InvalidState(
			fmt.Sprintf("Booking is %s and can no longer be confirmed", booking.Status))
	}
}

func (s *bookingService) recordPayment(ctx context.Context, booking *model.Booking, intent *gateway.Intent) error {
	record := &model.PaymentRecord{
		BookingID: booking.ID,
		IntentID:  intent.ID,
		Amount:    booking.TotalAmount,
		Currency:  booking.Currency,
		Status:    model.PaymentStatusPaid,
		CreatedAt: s.now(),
	}
	err := s.paymentRepo.Create(ctx, record)
	if err != nil && !errors.Is(err, bookingserrors.ErrAlreadyRecorded) {
		s.cfg.Log.Error("Failed to record payment", "id", booking.ID, "intent_id", intent.ID, "error", err)
		return apperrors.Persistence("Failed to record payment", err)
	}
	return nil
}

func (s *bookingService) Cancel(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.CancelPending(ctx, id, model.CancelUserRequested)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		if errors.Is(err, bookingserrors.ErrNotPending) {
			return s.resolveFailedCancel(ctx, id)
		}
		metrics.TrackOperation("cancel", "error")
		return nil, apperrors.Persistence("Failed to cancel booking", err)
	}

	s.publishEvent(ctx, events.TypeBookingCancelled, booking)
	metrics.TrackOperation("cancel", "ok")
	s.cfg.Log.Info("Booking cancelled", "id", booking.ID, "reason", booking.CancelReason)
	return booking, nil
}

func (s *bookingService) resolveFailedCancel(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		metrics.TrackOperation("cancel", "not_found")
		return nil, err
	}

	if booking.Status == model.StatusCancelled {
		metrics.TrackOperation("cancel", "idempotent")
		return booking, nil
	}

	metrics.TrackOperation("cancel", "invalid_state")
	return nil, apperrors.InvalidState(
		fmt.Sprintf("Booking is %s and cannot be cancelled", booking.Status))
}

func (s *bookingService) FindExpired(ctx context.Context, now time.Time, limit int) ([]*model.Booking, error) {
	return s.repo.FindExpiredPending(ctx, now, limit)
}

// ExpireBooking cancels one overdue pending booking on behalf of the
// sweeper. Returns false when another actor got there first, which the
// sweeper treats as success.
func (s *bookingService) ExpireBooking(ctx context.Context, id string) (bool, error) {
	booking, err := s.repo.CancelPending(ctx, id, model.CancelExpired)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotPending) {
			return false, nil
		}
		return false, err
	}

	s.publishEvent(ctx, events.TypeBookingCancelled, booking)
	s.cfg.Log.Info("Booking expired", "id", booking.ID)
	return true, nil
}

func (s *bookingService) FindDueReminders(ctx context.Context, now time.Time, limit int) ([]*model.PaymentDeadlineRecord, error) {
	return s.deadlineRepo.FindDueReminders(ctx, now, s.cfg.ReminderLead, limit)
}

// SendReminderIfNeeded delivers the single payment reminder a pending
// booking is owed. A short-lived Redis claim fences concurrent scheduler
// instances; the durable reminder_sent flag is flipped only after the
// event is actually published, so a failed send leaves the reminder owed.
func (s *bookingService) SendReminderIfNeeded(ctx context.Context, record *model.PaymentDeadlineRecord) (bool, error) {
	if record.ReminderSent {
		return false, nil
	}

	claimKey := reminderClaimKey(record.BookingID)
	claimed, err := s.redis.SetNX(ctx, claimKey, "1", s.cfg.ReminderClaimTTL).Result()
	if err != nil {
		return false, apperrors.Persistence("Failed to claim reminder", err)
	}
	if !claimed {
		return false, nil
	}

	booking, err := s.repo.FindByID(ctx, record.BookingID)
	if err != nil {
		s.releaseClaim(ctx, claimKey)
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return false, nil
		}
		return false, apperrors.Persistence("Failed to load booking for reminder", err)
	}
	if booking.Status != model.StatusPending || model.RemainingUntil(s.now(), record.PaymentDeadline).Expired {
		return false, nil
	}

	reminder := events.ReminderDue{
		BookingID:       booking.ID,
		GuestID:         booking.GuestID,
		ListingID:       booking.ListingID,
		PaymentDeadline: record.PaymentDeadline,
		OccurredAt:      s.now(),
	}
	msg, err := kafka.NewMessage(booking.ID, events.TypeReminderDue, "reminder-scheduler", reminder)
	if err != nil {
		s.releaseClaim(ctx, claimKey)
		return false, apperrors.Internal("Failed to encode reminder", err)
	}
	if err := s.reminderPub.Publish(ctx, msg); err != nil {
		s.releaseClaim(ctx, claimKey)
		s.cfg.Log.Error("Failed to publish reminder", "id", booking.ID, "error", err)
		return false, apperrors.Internal("Failed to publish reminder", err)
	}

	flipped, err := s.deadlineRepo.MarkReminderSent(ctx, record.BookingID)
	if err != nil {
		s.cfg.Log.Error("Reminder published but flag not set", "id", booking.ID, "error", err)
		return true, apperrors.Persistence("Failed to mark reminder sent", err)
	}
	if flipped {
		metrics.TrackReminderSent()
		s.cfg.Log.Info("Payment reminder sent", "id", booking.ID, "deadline", record.PaymentDeadline)
	}
	return flipped, nil
}

// --- Helpers ---

func (s *bookingService) applyDefaults(b *model.Booking, now time.Time) {
	b.ID = ""
	b.Status = model.StatusPending
	b.CancelReason = ""
	b.CreatedAt = now
	deadline := now.Add(s.cfg.PaymentWindow)
	b.PaymentDeadline = &deadline
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) requireLivePending(b *model.Booking) error {
	if b.Status != model.StatusPending {
		return apperrors.InvalidState(
			fmt.Sprintf("Booking is %s; payment is only possible while pending", b.Status))
	}
	if b.PaymentDeadline == nil || model.RemainingUntil(s.now(), *b.PaymentDeadline).Expired {
		return apperrors.Expired(
			fmt.Sprintf("Payment window for booking %s has closed", b.ID))
	}
	return nil
}

func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	msg, err := kafka.NewMessage(booking.ID, eventType, "bookings", events.FromBooking(booking, s.now()))
	if err != nil {
		s.cfg.Log.Error("Failed to encode booking event", "id", booking.ID, "type", eventType, "error", err)
		return
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.cfg.Log.Error("Failed to publish booking event", "id", booking.ID, "type", eventType, "error", err)
	}
}

func (s *bookingService) releaseClaim(ctx context.Context, key string) {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		s.cfg.Log.Warn("Failed to release reminder claim", "key", key, "error", err)
	}
}

func reminderClaimKey(bookingID string) string {
	return "reminder:claim:" + bookingID
}
