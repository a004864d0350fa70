package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staybook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultKafkaBrokers       = "localhost:9092"
	DefaultKafkaEventTopic    = "booking-events"
	DefaultKafkaReminderTopic = "booking-reminders"
	DefaultKafkaDLQTopic      = "booking-dlq"
	DefaultKafkaGroupID       = "staybook-notifier"

	DefaultPort = "8080"

	// Unpaid bookings are cancelled once this window lapses.
	DefaultPaymentWindow = 48 * time.Hour
	// Reminders go out when a pending booking enters the last quarter of
	// its payment window.
	DefaultReminderLead     = 12 * time.Hour
	DefaultReminderClaimTTL = 2 * time.Minute

	DefaultSweepInterval  = 1 * time.Minute
	DefaultSweepBatchSize = 200
	DefaultSweepLockTTL   = 90 * time.Second

	DefaultGatewayTimeout = 15 * time.Second

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100
)

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	if offset < 0 {
		return 0
	}
	return offset
}
