package mapper

import (
	"encoding/json"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/model"

	"gorm.io/datatypes"
)

type ChunkMapper struct{}

func NewChunkMapper() *ChunkMapper {
	return &ChunkMapper{}
}

func (m *ChunkMapper) ToEntity(c *model.Chunk) *entity.Chunk {
	if c == nil {
		return nil
	}

	var metadata map[string]any
	if len(c.Metadata) > 0 {
		// Malformed metadata is dropped rather than failing the read.
		_ = json.Unmarshal(c.Metadata, &metadata)
	}

	return &entity.Chunk{
		Id:          c.Id,
		ProjectId:   c.ProjectId,
		Filename:    c.Filename,
		FileIndex:   c.FileIndex,
		ChunkId:     c.ChunkId,
		TotalChunks: c.TotalChunks,
		ChunkSize:   c.ChunkSize,
		Content:     c.Content,
		Metadata:    metadata,
		CreatedAt:   c.CreatedAt,
	}
}

func (m *ChunkMapper) ToModel(c *entity.Chunk) (*model.Chunk, error) {
	if c == nil {
		return nil, nil
	}

	var metadata datatypes.JSON
	if len(c.Metadata) > 0 {
		raw, err := json.Marshal(c.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = datatypes.JSON(raw)
	}

	return &model.Chunk{
		Id:          c.Id,
		ProjectId:   c.ProjectId,
		Filename:    c.Filename,
		FileIndex:   c.FileIndex,
		ChunkId:     c.ChunkId,
		TotalChunks: c.TotalChunks,
		ChunkSize:   c.ChunkSize,
		Content:     c.Content,
		Metadata:    metadata,
		CreatedAt:   c.CreatedAt,
	}, nil
}

func (m *ChunkMapper) ToEntities(chunks []*model.Chunk) []*entity.Chunk {
	entities := make([]*entity.Chunk, len(chunks))
	for i, c := range chunks {
		entities[i] = m.ToEntity(c)
	}
	return entities
}
