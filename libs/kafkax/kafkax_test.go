package kafkax

import (
	"context"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func TestExtractEventMeta(t *testing.T) {
	msg := kafka.Message{
		Topic:     "booking.appointment.booked.v1",
		Partition: 2,
		Offset:    41,
		Key:       []byte("agent-1"),
	}
	meta := ExtractEventMeta(msg)
	if meta.EventID != "booking.appointment.booked.v1/2/41" {
		t.Fatalf("unexpected fallback event id %q", meta.EventID)
	}
	if meta.EventType != msg.Topic {
		t.Fatalf("expected topic as event type, got %q", meta.EventType)
	}

	msg.Headers = []kafka.Header{
		{Key: "event_id", Value: []byte("evt-1")},
		{Key: "event_type", Value: []byte("availability.rules.changed.v1")},
	}
	meta = ExtractEventMeta(msg)
	if meta.EventID != "evt-1" || meta.EventType != "availability.rules.changed.v1" {
		t.Fatalf("headers must win, got %+v", meta)
	}
}

func TestSplitBrokers(t *testing.T) {
	got := SplitBrokers(" kafka-1:9092, ,kafka-2:9092")
	if len(got) != 2 || got[0] != "kafka-1:9092" || got[1] != "kafka-2:9092" {
		t.Fatalf("unexpected brokers %v", got)
	}
}

func TestExtractTraceContext(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	msg := kafka.Message{Headers: []kafka.Header{
		{Key: "traceparent", Value: []byte("00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")},
	}}
	ctx := ExtractTraceContext(context.Background(), msg)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Fatalf("expected remote span context, got %+v", sc)
	}
}

func TestReadyCheckWithoutBrokers(t *testing.T) {
	if err := ReadyCheck(" , ")(context.Background()); err == nil {
		t.Fatal("expected error without brokers")
	}
}

func TestReadyCheckUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := ReadyCheck("127.0.0.1:1")(ctx); err == nil {
		t.Fatal("expected error for unreachable broker")
	}
}
