package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/scope"
	"rag-pipeline-be/internal/repository/specification"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/chunker"

	"github.com/google/uuid"
)

type IChunkService interface {
	// InsertChunks stores one file's chunks under a freshly allocated file index.
	// A record that fails validation rejects the whole batch.
	InsertChunks(ctx context.Context, projectId, filename string, chunks []chunker.Chunk) (*dto.InsertChunksResult, error)
	ListFileChunks(ctx context.Context, projectId string, fileIndex int) ([]*entity.Chunk, error)
	ListProjectChunks(ctx context.Context, projectId string, page, pageSize int) ([]*entity.Chunk, error)
	ListChunks(ctx context.Context, projectId string, page, pageSize int) (*dto.ListChunksResponse, error)
	CountChunks(ctx context.Context, projectId string) (int64, error)
	// ResetProject deletes every chunk of the project. The vector collection is left alone.
	ResetProject(ctx context.Context, projectId string) (int64, error)
}

type chunkService struct {
	uowFactory   unitofwork.RepositoryFactory
	allocator    ISequenceAllocator
	logger       logger.ILogger
	storeTimeout time.Duration
}

func NewChunkService(
	uowFactory unitofwork.RepositoryFactory,
	allocator ISequenceAllocator,
	log logger.ILogger,
	storeTimeout time.Duration,
) IChunkService {
	return &chunkService{
		uowFactory:   uowFactory,
		allocator:    allocator,
		logger:       log,
		storeTimeout: storeTimeout,
	}
}

func validateChunks(filename string, chunks []chunker.Chunk) error {
	if strings.TrimSpace(filename) == "" {
		return apperror.NewValidationError("filename", "must not be empty")
	}
	if len(chunks) == 0 {
		return apperror.NewValidationError("chunks", "batch is empty")
	}

	total := len(chunks)
	for i, c := range chunks {
		switch {
		case c.Content == "":
			return apperror.NewValidationError("content", fmt.Sprintf("chunk %d is empty", i))
		case c.ChunkSize != utf8.RuneCountInString(c.Content):
			return apperror.NewValidationError("chunk_size", fmt.Sprintf("chunk %d declares %d, content has %d", i, c.ChunkSize, utf8.RuneCountInString(c.Content)))
		case c.TotalChunks != total:
			return apperror.NewValidationError("total_chunks", fmt.Sprintf("chunk %d declares %d, batch has %d", i, c.TotalChunks, total))
		case c.ChunkID != i:
			return apperror.NewValidationError("chunk_id", fmt.Sprintf("expected %d, got %d", i, c.ChunkID))
		}
	}
	return nil
}

func (s *chunkService) InsertChunks(ctx context.Context, projectId, filename string, chunks []chunker.Chunk) (*dto.InsertChunksResult, error) {
	projectId, err := normalizeProjectId(projectId)
	if err != nil {
		return nil, err
	}
	if err := validateChunks(filename, chunks); err != nil {
		pe := apperror.NewPipelineError(apperror.StageInsertion, projectId, err)
		pe.Filename = filename
		return nil, pe
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	var fileIndex int
	err = allocateWithRetry(ctx, s.logger, "file_index", func() error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.Begin(ctx); err != nil {
			return apperror.FromStore(err)
		}
		defer uow.Rollback()

		index, err := s.allocator.NextFileIndex(ctx, uow, projectId)
		if err != nil {
			return err
		}

		now := time.Now()
		records := make([]*entity.Chunk, len(chunks))
		for i, c := range chunks {
			records[i] = &entity.Chunk{
				Id:          uuid.New(),
				ProjectId:   projectId,
				Filename:    filename,
				FileIndex:   index,
				ChunkId:     c.ChunkID,
				TotalChunks: c.TotalChunks,
				ChunkSize:   c.ChunkSize,
				Content:     c.Content,
				Metadata:    c.Metadata,
				CreatedAt:   now,
			}
		}

		if err := uow.ChunkRepository().CreateBulk(ctx, records); err != nil {
			return apperror.FromStore(err)
		}
		if err := uow.Commit(); err != nil {
			return apperror.FromStore(err)
		}
		fileIndex = index
		return nil
	})
	if err != nil {
		pe := apperror.NewPipelineError(apperror.StageInsertion, projectId, err)
		pe.Filename = filename
		return nil, pe
	}

	s.logger.Info("chunk_store", "Chunks inserted", map[string]interface{}{
		"project_id": projectId,
		"filename":   filename,
		"file_index": fileIndex,
		"inserted":   len(chunks),
	})
	return &dto.InsertChunksResult{Inserted: len(chunks), FileIndex: fileIndex}, nil
}

func (s *chunkService) ListFileChunks(ctx context.Context, projectId string, fileIndex int) ([]*entity.Chunk, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkRepository().FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.ByFileIndex{FileIndex: fileIndex},
		specification.OrderBy{Field: "chunk_id"},
	)
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return chunks, nil
}

func (s *chunkService) ListProjectChunks(ctx context.Context, projectId string, page, pageSize int) ([]*entity.Chunk, error) {
	page, pageSize = normalizePage(page, pageSize)
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	chunks, err := uow.ChunkRepository().FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.Scoped(scope.OrderByChunkPosition),
		specification.Page(page, pageSize),
	)
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return chunks, nil
}

func (s *chunkService) ListChunks(ctx context.Context, projectId string, page, pageSize int) (*dto.ListChunksResponse, error) {
	page, pageSize = normalizePage(page, pageSize)

	total, err := s.CountChunks(ctx, projectId)
	if err != nil {
		return nil, err
	}
	chunks, err := s.ListProjectChunks(ctx, projectId, page, pageSize)
	if err != nil {
		return nil, err
	}

	res := &dto.ListChunksResponse{
		Chunks:      make([]*dto.ChunkResponse, 0, len(chunks)),
		Total:       total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
	}
	for _, c := range chunks {
		res.Chunks = append(res.Chunks, dto.NewChunkResponse(c))
	}
	return res, nil
}

func (s *chunkService) CountChunks(ctx context.Context, projectId string) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	count, err := uow.ChunkRepository().Count(ctx, specification.ByProjectID{ProjectID: projectId})
	if err != nil {
		return 0, apperror.FromStore(err)
	}
	return count, nil
}

func (s *chunkService) ResetProject(ctx context.Context, projectId string) (int64, error) {
	projectId, err := normalizeProjectId(projectId)
	if err != nil {
		return 0, err
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	deleted, err := uow.ChunkRepository().DeleteByProjectId(ctx, projectId)
	if err != nil {
		return 0, apperror.NewPipelineError(apperror.StageReset, projectId, apperror.FromStore(err))
	}

	s.logger.Info("chunk_store", "Project chunks reset", map[string]interface{}{
		"project_id": projectId,
		"deleted":    deleted,
	})
	return deleted, nil
}
