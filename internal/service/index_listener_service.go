package service

import (
	"context"
	"strings"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/events"
	pktNats "rag-pipeline-be/pkg/nats"
)

// EventSubscriber is satisfied by *pktNats.Subscriber.
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType, durableName string, handler pktNats.EventHandler) error
}

// IndexListenerService turns INDEX_REQUESTED events from the bus into queued reindex jobs.
type IndexListenerService struct {
	subscriber EventSubscriber
	publisher  IPublisherService
	logger     logger.ILogger
}

func NewIndexListenerService(sub EventSubscriber, publisher IPublisherService, log logger.ILogger) *IndexListenerService {
	return &IndexListenerService{
		subscriber: sub,
		publisher:  publisher,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *IndexListenerService) Start(ctx context.Context) error {
	err := s.subscriber.Subscribe(ctx, events.EventIndexRequested, "rag-index-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("events", "Failed to start index request listener", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.logger.Info("events", "Listening for index requests", map[string]interface{}{
		"subject": pktNats.Subject(events.EventIndexRequested),
	})
	return nil
}

func (s *IndexListenerService) handleEvent(ctx context.Context, event events.BaseEvent) error {
	projectId := strings.TrimSpace(event.String("project_id"))
	if projectId == "" {
		s.logger.Warn("events", "Index request without project_id, ignoring", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}

	return s.publisher.EnqueueIndex(ctx, dto.IndexProjectMessage{
		ProjectId: projectId,
		DoReset:   event.Bool("do_reset"),
	})
}
