package entity

import (
	"time"

	"github.com/google/uuid"
)

// Chunk is an immutable stored segment of an ingested file.
// All chunks of one ingested file share FileIndex.
type Chunk struct {
	Id          uuid.UUID
	ProjectId   string
	Filename    string
	FileIndex   int
	ChunkId     int
	TotalChunks int
	ChunkSize   int
	Content     string
	Metadata    map[string]any
	CreatedAt   time.Time
}
