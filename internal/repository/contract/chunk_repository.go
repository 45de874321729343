package contract

import (
	"context"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/repository/specification"
)

type ChunkRepository interface {
	CreateBulk(ctx context.Context, chunks []*entity.Chunk) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MaxFileIndex returns -1 when the project has no chunks.
	MaxFileIndex(ctx context.Context, projectId string) (int, error)
	DeleteByProjectId(ctx context.Context, projectId string) (int64, error)
}
