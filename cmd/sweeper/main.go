package main

import (
	"context"
	"os/signal"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	"staybook/internal/payments/gateway"
	"staybook/internal/reminders"
	"staybook/internal/sweeper"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	"sync"
	"syscall"
)

const ServiceName = "sweeper"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Sweeper service")

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

	bookingService := service.NewBookingService(
		repository.NewMongoBookingRepository(cfg),
		repository.NewMongoDeadlineRepository(cfg),
		repository.NewMongoPaymentRepository(cfg),
		validator.NewBookingValidator(cfg.Log),
		gateway.NewFakeGateway(), // the sweeper never talks to the provider
		eventProducer,
		reminderProducer,
		cfg.Client.Redis,
		cfg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		sweeper.New(bookingService, cfg.Client.Redis, cfg).Run(ctx)
	}()
	go func() {
		defer wg.Done()
		reminders.New(bookingService, cfg).Run(ctx)
	}()

	wg.Wait()
	cfg.Log.Info("Sweeper service stopped")
}
