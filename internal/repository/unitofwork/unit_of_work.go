package unitofwork

import (
	"context"

	"rag-pipeline-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProjectRepository() contract.ProjectRepository
	ChunkRepository() contract.ChunkRepository
}
