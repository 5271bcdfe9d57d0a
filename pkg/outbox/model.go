package outbox

import (
	"time"

	"github.com/segmentio/kafka-go"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Event is one row of the transactional outbox. It is written in the same
// transaction as the aggregate it describes and relayed to kafka afterwards.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	Type          string
	Payload       []byte
	Headers       map[string]string
	Traceparent   string
	CreatedAt     time.Time
	Status        Status
	RelayID       string
	RetryCount    int
	LastError     *string
}

// KafkaMessage renders the event as the message the relay publishes. The
// event type and traceparent travel as headers so consumers can filter and
// resume the trace without decoding the payload.
func (e Event) KafkaMessage(topic string) kafka.Message {
	headers := make([]kafka.Header, 0, len(e.Headers)+2)
	for k, v := range e.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	headers = append(headers, kafka.Header{Key: "event_type", Value: []byte(e.Type)})
	if e.Traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(e.Traceparent)})
	}
	return kafka.Message{
		Topic:   topic,
		Key:     []byte(e.AggregateID),
		Value:   e.Payload,
		Headers: headers,
	}
}
