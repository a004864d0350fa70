package main

import (
	"context"
	"staybook/internal/bookings/handler"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	"staybook/internal/payments/gateway"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	"time"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	eventProducer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaEventTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create event producer", "error", err)
	}
	defer eventProducer.Close()

	reminderProducer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaReminderTopic, cfg.KafkaDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create reminder producer", "error", err)
	}
	defer reminderProducer.Close()

	bookingService := initServices(cfg, eventProducer, reminderProducer)
	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, eventProducer, reminderProducer *kafka.Producer) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	deadlineRepo := repository.NewMongoDeadlineRepository(cfg)
	paymentRepo := repository.NewMongoPaymentRepository(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := deadlineRepo.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create deadline indexes", "error", err)
	}
	if err := paymentRepo.EnsureIndexes(ctx); err != nil {
		cfg.Log.Fatal("Failed to create payment indexes", "error", err)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		deadlineRepo,
		paymentRepo,
		bookingValidator,
		newGateway(cfg),
		eventProducer,
		reminderProducer,
		cfg.Client.Redis,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func newGateway(cfg *config.Config) gateway.Gateway {
	if cfg.GatewayBaseURL == "" {
		cfg.Log.Warn("No payment gateway configured, using in-memory fake")
		return gateway.NewFakeGateway()
	}
	return gateway.NewHTTPGateway(&gateway.ClientConfig{
		BaseURL: cfg.GatewayBaseURL,
		APIKey:  cfg.GatewayAPIKey,
		Timeout: cfg.GatewayTimeout,
	}, cfg.Log)
}
