package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Chunk rows of one ingestion batch share (project_id, file_index); the unique
// index over (project_id, file_index, chunk_id) rejects a second batch that
// was allocated the same file_index.
type Chunk struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ProjectId   string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_chunks_project_file_chunk,priority:1;index:idx_chunks_project_file,priority:1"`
	Filename    string         `gorm:"type:varchar(512);not null;index:idx_chunks_filename_file,priority:1"`
	FileIndex   int            `gorm:"not null;uniqueIndex:idx_chunks_project_file_chunk,priority:2;index:idx_chunks_project_file,priority:2;index:idx_chunks_filename_file,priority:2;index:idx_chunks_file_index"`
	ChunkId     int            `gorm:"not null;uniqueIndex:idx_chunks_project_file_chunk,priority:3"`
	TotalChunks int            `gorm:"not null"`
	ChunkSize   int            `gorm:"not null"`
	Content     string         `gorm:"type:text;not null"`
	Metadata    datatypes.JSON
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
}

func (Chunk) TableName() string {
	return "chunks"
}
