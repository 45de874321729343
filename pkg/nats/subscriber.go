package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.BaseEvent) error

// Subscriber handles listening for events from NATS.
type Subscriber struct {
	js     jetstream.JetStream
	stream string
	logger logger.ILogger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(nc *nats.Conn, stream string, log logger.ILogger) (*Subscriber, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}
	return &Subscriber{js: js, stream: stream, logger: log}, nil
}

func decode(msg jetstream.Msg) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(msg.Data(), &payload); err != nil {
		return events.BaseEvent{}, err
	}

	eventType := msg.Headers().Get(eventTypeHdr)
	if eventType == "" {
		eventType = eventTypeFromSubject(msg.Subject())
	}
	occurredAt := time.Now()
	if ts, err := time.Parse(time.RFC3339Nano, msg.Headers().Get("Occurred-At")); err == nil {
		occurredAt = ts
	}

	return events.BaseEvent{Type: eventType, Data: payload, OccurredAt: occurredAt}, nil
}

// Subscribe registers a handler on events.<eventType> through a durable consumer.
// Malformed payloads are terminated, handler errors are redelivered.
func (s *Subscriber) Subscribe(ctx context.Context, eventType, durableName string, handler EventHandler) error {
	consumer, err := s.js.CreateOrUpdateConsumer(ctx, s.stream, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: Subject(eventType),
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		event, err := decode(msg)
		if err != nil {
			s.logger.Error("events", "Malformed event payload", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Term()
			return
		}

		if err := handler(ctx, event); err != nil {
			s.logger.Error("events", "Handler failed", map[string]interface{}{
				"subject": msg.Subject(),
				"error":   err.Error(),
			})
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()

	s.logger.Info("events", "Subscribed", map[string]interface{}{
		"subject": Subject(eventType),
		"durable": durableName,
	})
	return nil
}

// Stop ends every consumer started by Subscribe. The connection is closed by its owner.
func (s *Subscriber) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
}
