package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is the unit of exchange on the booking event stream. The key is
// always a booking ID so that all events for one booking land on the same
// partition in order.
type Message struct {
	Key       string
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// Header keys shared by producers and consumers.
const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderTimestamp     = "timestamp"
	HeaderRetryCount    = "retry-count"
	HeaderOriginalTopic = "original-topic"
)

// NewMessage builds a message keyed by booking ID with a JSON-encoded
// payload and the standard headers filled in.
func NewMessage(bookingID, eventType, source string, payload any) (Message, error) {
	value, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}

	now := time.Now().UTC()
	return Message{
		Key:   bookingID,
		Value: value,
		Headers: map[string]string{
			HeaderEventID:   uuid.New().String(),
			HeaderEventType: eventType,
			HeaderSource:    source,
			HeaderTimestamp: now.Format(time.RFC3339),
		},
		Timestamp: now,
	}, nil
}

// MessageHandler processes one consumed message. A nil return commits the
// offset; an error triggers the consumer's retry/DLQ path.
type MessageHandler func(ctx context.Context, msg Message) error

func (m *Message) DecodeValue(v any) error {
	return json.Unmarshal(m.Value, v)
}

func (m *Message) EventID() string {
	return m.Headers[HeaderEventID]
}

func (m *Message) EventType() string {
	return m.Headers[HeaderEventType]
}

func (m *Message) RetryCount() int {
	count := 0
	if s, ok := m.Headers[HeaderRetryCount]; ok {
		_ = json.Unmarshal([]byte(s), &count)
	}
	return count
}
