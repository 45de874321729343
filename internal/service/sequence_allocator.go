package service

import (
	"context"
	"errors"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/pkg/apperror"
)

// ISequenceAllocator proposes the next per-scope index as MAX+1, or 0 for an
// empty scope. The value is a hint: the unique indexes decide, and writers
// go through allocateWithRetry.
type ISequenceAllocator interface {
	NextProjectIndex(ctx context.Context, uow unitofwork.UnitOfWork) (int, error)
	NextFileIndex(ctx context.Context, uow unitofwork.UnitOfWork, projectId string) (int, error)
}

type sequenceAllocator struct{}

func NewSequenceAllocator() ISequenceAllocator {
	return &sequenceAllocator{}
}

func (a *sequenceAllocator) NextProjectIndex(ctx context.Context, uow unitofwork.UnitOfWork) (int, error) {
	maxIndex, err := uow.ProjectRepository().MaxProjectIndex(ctx)
	if err != nil {
		return 0, apperror.FromStore(err)
	}
	return maxIndex + 1, nil
}

func (a *sequenceAllocator) NextFileIndex(ctx context.Context, uow unitofwork.UnitOfWork, projectId string) (int, error) {
	maxIndex, err := uow.ChunkRepository().MaxFileIndex(ctx, projectId)
	if err != nil {
		return 0, apperror.FromStore(err)
	}
	return maxIndex + 1, nil
}

// allocateWithRetry runs an allocate-then-write attempt and repeats it once
// when the write loses a uniqueness race. The attempt must recompute the index.
func allocateWithRetry(ctx context.Context, log logger.ILogger, scope string, attempt func() error) error {
	err := attempt()
	if err == nil || !errors.Is(err, apperror.ErrDuplicateKey) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return apperror.FromStore(ctxErr)
	}

	log.Warn("allocator", "Index allocation conflicted, retrying once", map[string]interface{}{
		"scope": scope,
		"error": err.Error(),
	})
	return attempt()
}
