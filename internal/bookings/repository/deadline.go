package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	"staybook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DeadlineCollection = "PaymentDeadlines"
)

type mongoDeadlineRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// DeadlineRepository tracks the payment deadline sidecar records that drive
// the reminder side-channel. One record per booking, created in the same
// transaction as the booking itself.
type DeadlineRepository interface {
	Create(ctx context.Context, record *model.PaymentDeadlineRecord) error
	FindByBooking(ctx context.Context, bookingID string) (*model.PaymentDeadlineRecord, error)
	MarkReminderSent(ctx context.Context, bookingID string) (bool, error)
	FindDueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*model.PaymentDeadlineRecord, error)
	EnsureIndexes(ctx context.Context) error
}

func NewMongoDeadlineRepository(cfg *config.Config) DeadlineRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoDeadlineRepository{
		cfg:        cfg,
		collection: db.Collection(DeadlineCollection),
	}
}

func (r *mongoDeadlineRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "reminder_sent", Value: 1},
				{Key: "payment_deadline", Value: 1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create deadline indexes: %w", err)
	}
	return nil
}

func (r *mongoDeadlineRepository) Create(ctx context.Context, record *model.PaymentDeadlineRecord) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create deadline record: %w", err)
	}
	return nil
}

func (r *mongoDeadlineRepository) FindByBooking(ctx context.Context, bookingID string) (*model.PaymentDeadlineRecord, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var record model.PaymentDeadlineRecord
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrDeadlineRecordNotFound
		}
		return nil, fmt.Errorf("failed to find deadline record: %w", err)
	}

	return &record, nil
}

// MarkReminderSent flips reminder_sent from false to true. Returns true only
// for the caller that performed the flip, so concurrent senders agree on a
// single winner.
func (r *mongoDeadlineRepository) MarkReminderSent(ctx context.Context, bookingID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := bson.M{
		"booking_id":    bookingID,
		"reminder_sent": false,
	}
	update := bson.M{
		"$set": bson.M{"reminder_sent": true},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	return result.ModifiedCount == 1, nil
}

// FindDueReminders returns unsent records whose deadline falls within the
// next lead window. Records already past their deadline are excluded: the
// sweeper owns those bookings and a reminder for a dead booking is noise.
func (r *mongoDeadlineRepository) FindDueReminders(ctx context.Context, now time.Time, lead time.Duration, limit int) ([]*model.PaymentDeadlineRecord, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"reminder_sent": false,
		"payment_deadline": bson.M{
			"$gt":  now,
			"$lte": now.Add(lead),
		},
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "payment_deadline", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find due reminders: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.PaymentDeadlineRecord
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode deadline records: %w", err)
	}

	return records, nil
}
