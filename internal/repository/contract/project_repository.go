package contract

import (
	"context"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/repository/specification"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Project, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// MaxProjectIndex returns -1 when no project exists.
	MaxProjectIndex(ctx context.Context) (int, error)
}
