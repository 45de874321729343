package events

import (
	"context"
	"time"
)

const (
	EventChunksInserted = "CHUNKS_INSERTED"
	EventProjectIndexed = "PROJECT_INDEXED"
	EventProjectReset   = "PROJECT_RESET"
	EventIndexRequested = "INDEX_REQUESTED"
)

// Publisher is implemented by the NATS bus. NopPublisher stands in when no bus is configured.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, event Event) error { return nil }

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
}

func ChunksInserted(projectId, filename string, fileIndex, count int) BaseEvent {
	return New(EventChunksInserted, map[string]interface{}{
		"project_id": projectId,
		"filename":   filename,
		"file_index": fileIndex,
		"inserted":   count,
	})
}

func ProjectIndexed(projectId, collection string, indexed int) BaseEvent {
	return New(EventProjectIndexed, map[string]interface{}{
		"project_id": projectId,
		"collection": collection,
		"indexed":    indexed,
	})
}

func ProjectReset(projectId string, deletedChunks int64) BaseEvent {
	return New(EventProjectReset, map[string]interface{}{
		"project_id":     projectId,
		"deleted_chunks": deletedChunks,
	})
}
