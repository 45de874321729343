package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher handles sending events to the NATS bus.
type Publisher struct {
	js     jetstream.JetStream
	logger logger.ILogger
}

var _ events.Publisher = (*Publisher)(nil)

func NewPublisher(nc *nats.Conn, stream string, log logger.ILogger) (*Publisher, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := EnsureStream(ctx, js, stream); err != nil {
		// the stream may already exist with other settings
		log.Warn("events", "Failed to ensure stream", map[string]interface{}{
			"stream": stream,
			"error":  err.Error(),
		})
	}

	return &Publisher{js: js, logger: log}, nil
}

func encode(event events.Event) (*nats.Msg, error) {
	data, err := json.Marshal(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	msg := nats.NewMsg(Subject(event.EventType()))
	msg.Data = data
	msg.Header.Set(eventTypeHdr, event.EventType())
	msg.Header.Set("Occurred-At", event.Timestamp().UTC().Format(time.RFC3339Nano))
	return msg, nil
}

// Publish sends an event to the events.<TYPE> subject.
func (p *Publisher) Publish(ctx context.Context, event events.Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if _, err := p.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish event to subject %s: %w", msg.Subject, err)
	}
	p.logger.Debug("events", "Event published", map[string]interface{}{
		"subject": msg.Subject,
	})
	return nil
}
