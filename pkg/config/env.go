package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvKafkaBrokers       = "KAFKA_BROKERS"
	EnvKafkaEventTopic    = "KAFKA_EVENT_TOPIC"
	EnvKafkaReminderTopic = "KAFKA_REMINDER_TOPIC"
	EnvKafkaDLQTopic      = "KAFKA_DLQ_TOPIC"
	EnvKafkaGroupID       = "KAFKA_GROUP_ID"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvPaymentWindow    = "PAYMENT_WINDOW"
	EnvReminderLead     = "REMINDER_LEAD"
	EnvReminderClaimTTL = "REMINDER_CLAIM_TTL"

	EnvSweepInterval  = "SWEEP_INTERVAL"
	EnvSweepBatchSize = "SWEEP_BATCH_SIZE"
	EnvSweepLockTTL   = "SWEEP_LOCK_TTL"

	EnvGatewayBaseURL = "GATEWAY_BASE_URL"
	EnvGatewayAPIKey  = "GATEWAY_API_KEY"
	EnvGatewayTimeout = "GATEWAY_TIMEOUT"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"
)
