package dto

import (
	"time"

	"rag-pipeline-be/internal/entity"
)

type InsertChunksResult struct {
	Inserted  int `json:"inserted"`
	FileIndex int `json:"file_index"`
}

type ChunkResponse struct {
	Filename    string         `json:"filename"`
	FileIndex   int            `json:"file_index"`
	ChunkId     int            `json:"chunk_id"`
	TotalChunks int            `json:"total_chunks"`
	ChunkSize   int            `json:"chunk_size"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

func NewChunkResponse(c *entity.Chunk) *ChunkResponse {
	return &ChunkResponse{
		Filename:    c.Filename,
		FileIndex:   c.FileIndex,
		ChunkId:     c.ChunkId,
		TotalChunks: c.TotalChunks,
		ChunkSize:   c.ChunkSize,
		Content:     c.Content,
		Metadata:    c.Metadata,
		CreatedAt:   c.CreatedAt,
	}
}

type ListChunksResponse struct {
	Chunks      []*ChunkResponse `json:"chunks"`
	Total       int64            `json:"total"`
	TotalPages  int              `json:"total_pages"`
	CurrentPage int              `json:"current_page"`
}

type ResetProjectResponse struct {
	ProjectId     string `json:"project_id"`
	DeletedChunks int64  `json:"deleted_chunks"`
}
