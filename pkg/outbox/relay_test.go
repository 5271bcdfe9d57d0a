package outbox

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type fakeStore struct {
	pending []Event
	sent    []int64
	failed  []int64
}

func (f *fakeStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]Event, error) {
	out := f.pending
	f.pending = nil
	return out, nil
}

func (f *fakeStore) MarkSent(ctx context.Context, ids []int64) error {
	f.sent = append(f.sent, ids...)
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeStore) ExtendLease(ctx context.Context, relayID string, ids []int64, lease time.Duration) error {
	return nil
}

type fakeProducer struct {
	messages []kafka.Message
	failKeys map[string]bool
}

func (f *fakeProducer) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		if f.failKeys[string(m.Key)] {
			return errors.New("broker unavailable")
		}
		f.messages = append(f.messages, m)
	}
	return nil
}

func TestRelayDrainSendsBatchAndMarksOutcomes(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	store := &fakeStore{pending: []Event{
		{ID: 1, AggregateID: "ord-1", Type: "OrderCreated", Payload: []byte(`{}`)},
		{ID: 2, AggregateID: "ord-2", Type: "OrderCreated", Payload: []byte(`{}`)},
		{ID: 3, AggregateID: "ord-3", Type: "OrderCreated", Payload: []byte(`{}`)},
	}}
	producer := &fakeProducer{failKeys: map[string]bool{"ord-2": true}}
	relay := NewRelay(log, store, NewDispatcher(log, producer, "order.events"), "relay-1")

	relay.drain(context.Background())

	if len(producer.messages) != 2 {
		t.Fatalf("expected 2 published messages, got %d", len(producer.messages))
	}
	if len(store.sent) != 2 || store.sent[0] != 1 || store.sent[1] != 3 {
		t.Fatalf("unexpected sent ids: %v", store.sent)
	}
	if len(store.failed) != 1 || store.failed[0] != 2 {
		t.Fatalf("unexpected failed ids: %v", store.failed)
	}
}

func TestRelayDrainEmptyBatchIsQuiet(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	store := &fakeStore{}
	producer := &fakeProducer{}
	relay := NewRelay(log, store, NewDispatcher(log, producer, "order.events"), "relay-1")

	relay.drain(context.Background())

	if len(producer.messages) != 0 || len(store.sent) != 0 || len(store.failed) != 0 {
		t.Fatal("empty batch produced side effects")
	}
}

func TestEventKafkaMessageCarriesTypeAndTrace(t *testing.T) {
	ev := Event{
		ID:          7,
		AggregateID: "ord-7",
		Type:        "OrderCreated",
		Payload:     []byte(`{"order_id":"ord-7"}`),
		Headers:     map[string]string{"source": "checkout-service"},
		Traceparent: "00-abc-def-01",
	}
	msg := ev.KafkaMessage("order.events")

	if msg.Topic != "order.events" || string(msg.Key) != "ord-7" {
		t.Fatalf("unexpected message envelope: %+v", msg)
	}
	want := map[string]string{
		"source":      "checkout-service",
		"event_type":  "OrderCreated",
		"traceparent": "00-abc-def-01",
	}
	got := map[string]string{}
	for _, h := range msg.Headers {
		got[h.Key] = string(h.Value)
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("header %s: expected %q, got %q", k, v, got[k])
		}
	}
}
