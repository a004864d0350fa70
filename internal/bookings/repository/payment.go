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
	PaymentCollection = "Payments"
)

type mongoPaymentRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// PaymentRepository stores the settled payment attached to a confirmed
// booking. The unique booking_id index makes Create idempotent under
// retried confirms.
type PaymentRepository interface {
	Create(ctx context.Context, record *model.PaymentRecord) error
	FindByBooking(ctx context.Context, bookingID string) (*model.PaymentRecord, error)
	EnsureIndexes(ctx context.Context) error
}

func NewMongoPaymentRepository(cfg *config.Config) PaymentRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPaymentRepository{
		cfg:        cfg,
		collection: db.Collection(PaymentCollection),
	}
}

func (r *mongoPaymentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "booking_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create payment indexes: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) Create(ctx context.Context, record *model.PaymentRecord) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	record.CreatedAt = record.CreatedAt.UTC().Truncate(time.Millisecond)
	_, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrAlreadyRecorded
		}
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

func (r *mongoPaymentRepository) FindByBooking(ctx context.Context, bookingID string) (*model.PaymentRecord, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var record model.PaymentRecord
	err := r.collection.FindOne(ctx, bson.M{"booking_id": bookingID}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find payment record: %w", err)
	}

	return &record, nil
}
