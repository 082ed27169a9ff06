package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/goldenfocus/vibelog-assistant/internal/model"
)

const (
	// StreamName is the name of the assistant turns stream.
	StreamName = "ASSISTANT_TURNS"

	// SubjectPrefix is the prefix for all turn subjects.
	SubjectPrefix = "turns"

	// ExtractionConsumer is the durable consumer the memory
	// extraction worker reads from.
	ExtractionConsumer = "memory-extraction"
)

// StreamManager handles JetStream stream operations for turn events.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the turns stream exists with proper configuration.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil // Stream already exists
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      7 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		Description: "Completed assistant turns pending memory extraction",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// TurnSubject returns the subject for a user's turn events.
func TurnSubject(userID string) string {
	return fmt.Sprintf("%s.%s", SubjectPrefix, userID)
}

// PublishTurn publishes a completed turn for background processing.
func (m *StreamManager) PublishTurn(ctx context.Context, event *model.TurnEvent) (uint64, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal turn event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, TurnSubject(event.UserID), data)
	if err != nil {
		return 0, fmt.Errorf("failed to publish turn event: %w", err)
	}

	return ack.Sequence, nil
}

// ConsumeTurns creates (or attaches to) the durable extraction
// consumer and invokes handle for each turn event. Handler errors
// leave the message unacked for redelivery.
func (m *StreamManager) ConsumeTurns(ctx context.Context, handle func(context.Context, *model.TurnEvent) error) (jetstream.ConsumeContext, error) {
	js := m.client.JetStream()

	consumer, err := js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       ExtractionConsumer,
		FilterSubject: fmt.Sprintf("%s.>", SubjectPrefix),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    3,
		AckWait:       30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var event model.TurnEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			// Unparseable payloads can never succeed; drop them.
			_ = msg.Term()
			return
		}
		if err := handle(ctx, &event); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consumer: %w", err)
	}

	return cc, nil
}
