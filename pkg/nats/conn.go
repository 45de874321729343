package nats

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	DefaultStream = "EVENTS"
	subjectPrefix = "events."
	eventTypeHdr  = "Event-Type"
)

func Subject(eventType string) string {
	return subjectPrefix + eventType
}

func eventTypeFromSubject(subject string) string {
	return strings.TrimPrefix(subject, subjectPrefix)
}

// Connect opens one connection shared by the publisher and the subscriber.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return nc, nil
}

// EnsureStream creates or updates the stream capturing every events.* subject.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name string) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{subjectPrefix + ">"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
	})
	return err
}
