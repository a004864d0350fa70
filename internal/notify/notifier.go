package notify

import (
	"context"
	"staybook/pkg/logger"
)

// Notification is a guest-facing message. Delivery channels (email, push)
// are behind the Notifier interface; the lifecycle code only decides WHEN
// a message is owed, never HOW it travels.
type Notification struct {
	Recipient string
	Subject   string
	Body      string
	Metadata  map[string]string
}

type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// ConsoleNotifier writes notifications to the structured log. It stands in
// for a real delivery channel in local runs and keeps the send path
// observable in production until one is wired up.
type ConsoleNotifier struct {
	logger *logger.Logger
}

func NewConsoleNotifier(log *logger.Logger) *ConsoleNotifier {
	return &ConsoleNotifier{logger: log}
}

func (n *ConsoleNotifier) Send(_ context.Context, notification Notification) error {
	n.logger.Info("Notification sent",
		"recipient", notification.Recipient,
		"subject", notification.Subject,
		"body", notification.Body,
	)
	return nil
}
