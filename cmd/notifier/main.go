package main

import (
	"context"
	"errors"
	"os/signal"
	"staybook/internal/notify"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	"sync"
	"syscall"
)

const ServiceName = "notifier"

const maxHandlerRetries = 3

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Notifier service")

	handler := notify.EventHandler(cfg.Log, notify.NewConsoleNotifier(cfg.Log))

	eventConsumer, err := kafka.NewConsumer(
		cfg.KafkaBrokers, cfg.KafkaEventTopic, cfg.KafkaGroupID,
		cfg.KafkaDLQTopic, maxHandlerRetries, handler,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create event consumer", "error", err)
	}
	defer eventConsumer.Close()

	reminderConsumer, err := kafka.NewConsumer(
		cfg.KafkaBrokers, cfg.KafkaReminderTopic, cfg.KafkaGroupID,
		cfg.KafkaDLQTopic, maxHandlerRetries, handler,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create reminder consumer", "error", err)
	}
	defer reminderConsumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := eventConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Event consumer stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := reminderConsumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Reminder consumer stopped", "error", err)
		}
	}()

	wg.Wait()
	cfg.Log.Info("Notifier service stopped")
}
