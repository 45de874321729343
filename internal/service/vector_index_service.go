package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/contract"
	"rag-pipeline-be/internal/tracer"
	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/embedding"
	"rag-pipeline-be/pkg/events"
	"rag-pipeline-be/pkg/vectordb"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const (
	collectionPrefix   = "collection_"
	defaultSearchLimit = 10
	defaultBatchSize   = 50
	indexPageSize      = 500
)

type IVectorIndexService interface {
	CollectionName(projectId string) string
	// EnsureCollection returns true when a collection was created.
	EnsureCollection(ctx context.Context, projectId string, size int, reset bool) (bool, error)
	// Upsert writes records in batches and returns how many were committed,
	// also when a later batch fails.
	Upsert(ctx context.Context, projectId string, records []vectordb.Record) (int, error)
	// Search returns an empty result for a missing collection.
	Search(ctx context.Context, projectId string, vector []float32, limit int) ([]vectordb.SearchHit, error)
	ResetCollection(ctx context.Context, projectId string) error
	CollectionInfo(ctx context.Context, projectId string) (*dto.CollectionInfoResponse, error)
	IndexIntoVectorDB(ctx context.Context, projectId string, chunks []*entity.Chunk, reset bool) (*dto.IndexResult, error)
	IndexProject(ctx context.Context, projectId string, reset bool) (*dto.IndexResult, error)
}

type VectorIndexOptions struct {
	BatchSize        int
	VectorTimeout    time.Duration
	EmbeddingTimeout time.Duration
}

type vectorIndexService struct {
	index        vectordb.VectorIndex
	embedder     embedding.EmbeddingProvider
	chunkService IChunkService
	answerCache  contract.AnswerCache
	publisher    events.Publisher
	logger       logger.ILogger
	opts         VectorIndexOptions
}

func NewVectorIndexService(
	index vectordb.VectorIndex,
	embedder embedding.EmbeddingProvider,
	chunkService IChunkService,
	answerCache contract.AnswerCache,
	publisher events.Publisher,
	log logger.ILogger,
	opts VectorIndexOptions,
) IVectorIndexService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &vectorIndexService{
		index:        index,
		embedder:     embedder,
		chunkService: chunkService,
		answerCache:  answerCache,
		publisher:    publisher,
		logger:       log,
		opts:         opts,
	}
}

func (s *vectorIndexService) CollectionName(projectId string) string {
	return collectionPrefix + projectId
}

// recordID is stable for a chunk position so re-indexing replaces vectors.
func recordID(collection string, fileIndex, chunkId int) string {
	name := fmt.Sprintf("%s/%d/%d", collection, fileIndex, chunkId)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

func (s *vectorIndexService) EnsureCollection(ctx context.Context, projectId string, size int, reset bool) (bool, error) {
	if size <= 0 {
		return false, apperror.NewValidationError("embedding_size", "must be greater than zero")
	}
	name := s.CollectionName(projectId)
	ctx, cancel := withTimeout(ctx, s.opts.VectorTimeout)
	defer cancel()

	if reset {
		if err := s.index.DeleteCollection(ctx, name); err != nil {
			return false, apperror.FromRemote(err)
		}
		s.logger.Info("vector_index", "Collection reset", map[string]interface{}{"collection": name})
	}

	exists, err := s.index.CollectionExists(ctx, name)
	if err != nil {
		return false, apperror.FromRemote(err)
	}
	if exists {
		info, err := s.index.GetCollectionInfo(ctx, name)
		if err != nil {
			return false, apperror.FromRemote(err)
		}
		if info.Size != size {
			return false, fmt.Errorf("%w: collection %s has %d dimensions, embedding model has %d",
				apperror.ErrDimensionMismatch, name, info.Size, size)
		}
		return false, nil
	}

	if err := s.index.CreateCollection(ctx, name, size); err != nil {
		return false, apperror.FromRemote(err)
	}
	s.logger.Info("vector_index", "Collection created", map[string]interface{}{
		"collection": name,
		"size":       size,
	})
	return true, nil
}

func (s *vectorIndexService) Upsert(ctx context.Context, projectId string, records []vectordb.Record) (int, error) {
	name := s.CollectionName(projectId)
	succeeded := 0

	for batch, start := 0, 0; start < len(records); batch, start = batch+1, start+s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(records))

		bctx, cancel := withTimeout(ctx, s.opts.VectorTimeout)
		err := s.index.Upsert(bctx, name, records[start:end])
		cancel()
		if err != nil {
			s.logger.Error("vector_index", "Upsert batch failed", map[string]interface{}{
				"collection": name,
				"batch":      batch,
				"succeeded":  succeeded,
				"error":      err.Error(),
			})
			pe := apperror.NewPipelineError(apperror.StageUpsert, projectId, apperror.FromRemote(err))
			pe.Batch = batch
			pe.Succeeded = succeeded
			return succeeded, pe
		}
		succeeded = end
	}
	return succeeded, nil
}

func (s *vectorIndexService) Search(ctx context.Context, projectId string, vector []float32, limit int) ([]vectordb.SearchHit, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if len(vector) == 0 {
		return []vectordb.SearchHit{}, nil
	}
	ctx, cancel := withTimeout(ctx, s.opts.VectorTimeout)
	defer cancel()

	hits, err := s.index.Search(ctx, s.CollectionName(projectId), vector, limit)
	if errors.Is(err, apperror.ErrCollectionNotFound) {
		return []vectordb.SearchHit{}, nil
	}
	if err != nil {
		return nil, apperror.FromRemote(err)
	}
	return hits, nil
}

func (s *vectorIndexService) ResetCollection(ctx context.Context, projectId string) error {
	name := s.CollectionName(projectId)
	vctx, cancel := withTimeout(ctx, s.opts.VectorTimeout)
	defer cancel()

	if err := s.index.DeleteCollection(vctx, name); err != nil {
		return apperror.NewPipelineError(apperror.StageReset, projectId, apperror.FromRemote(err))
	}
	s.invalidateAnswers(ctx, projectId)

	s.logger.Info("vector_index", "Collection deleted", map[string]interface{}{"collection": name})
	return nil
}

func (s *vectorIndexService) CollectionInfo(ctx context.Context, projectId string) (*dto.CollectionInfoResponse, error) {
	name := s.CollectionName(projectId)
	ctx, cancel := withTimeout(ctx, s.opts.VectorTimeout)
	defer cancel()

	res := &dto.CollectionInfoResponse{ProjectId: projectId, Collection: name}
	exists, err := s.index.CollectionExists(ctx, name)
	if err != nil {
		return nil, apperror.FromRemote(err)
	}
	if !exists {
		return res, nil
	}

	info, err := s.index.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, apperror.FromRemote(err)
	}
	res.Exists = true
	res.Size = info.Size
	res.Distance = string(info.Distance)
	res.PointsCount = info.PointsCount
	return res, nil
}

func (s *vectorIndexService) embedChunks(ctx context.Context, projectId, collection string, chunks []*entity.Chunk) ([]vectordb.Record, error) {
	ctx, span := tracer.Start(ctx, "vector_index.embed", attribute.Int("chunks", len(chunks)))
	var err error
	defer func() { tracer.End(span, err) }()

	records := make([]vectordb.Record, 0, len(chunks))
	for i, c := range chunks {
		ectx, cancel := withTimeout(ctx, s.opts.EmbeddingTimeout)
		res, genErr := s.embedder.Generate(ectx, c.Content, embedding.TaskTypeDocument)
		cancel()
		if genErr == nil && (res == nil || len(res.Embedding.Values) == 0) {
			genErr = embedding.ErrEmptyEmbedding
		}
		if genErr != nil {
			pe := apperror.NewPipelineError(apperror.StageEmbedding, projectId, apperror.FromRemote(genErr))
			pe.Filename = c.Filename
			pe.FileIndex = c.FileIndex
			s.logger.Error("vector_index", "Embedding failed, nothing upserted", map[string]interface{}{
				"project_id": projectId,
				"position":   i,
				"file_index": c.FileIndex,
				"chunk_id":   c.ChunkId,
				"error":      genErr.Error(),
			})
			err = pe
			return nil, err
		}

		metadata := make(map[string]any, len(c.Metadata)+4)
		for k, v := range c.Metadata {
			metadata[k] = v
		}
		metadata["project_id"] = c.ProjectId
		metadata["filename"] = c.Filename
		metadata["file_index"] = c.FileIndex
		metadata["chunk_id"] = c.ChunkId

		records = append(records, vectordb.Record{
			ID:       recordID(collection, c.FileIndex, c.ChunkId),
			Vector:   res.Embedding.Values,
			Text:     c.Content,
			Metadata: metadata,
		})
	}
	return records, nil
}

// IndexIntoVectorDB embeds every chunk before touching the collection, so an
// embedding failure leaves the existing index as it was.
func (s *vectorIndexService) IndexIntoVectorDB(ctx context.Context, projectId string, chunks []*entity.Chunk, reset bool) (res *dto.IndexResult, err error) {
	ctx, span := tracer.Start(ctx, "vector_index.index",
		attribute.String("project_id", projectId),
		attribute.Int("chunks", len(chunks)),
		attribute.Bool("reset", reset),
	)
	defer func() { tracer.End(span, err) }()

	collection := s.CollectionName(projectId)
	records, err := s.embedChunks(ctx, projectId, collection, chunks)
	if err != nil {
		return nil, err
	}

	created, err := s.EnsureCollection(ctx, projectId, s.embedder.EmbeddingSize(), reset)
	if err != nil {
		return nil, err
	}
	s.invalidateAnswers(ctx, projectId)

	indexed, err := s.Upsert(ctx, projectId, records)
	res = &dto.IndexResult{
		ProjectId:   projectId,
		Collection:  collection,
		Created:     created,
		TotalChunks: len(chunks),
		Indexed:     indexed,
	}
	if err != nil {
		return res, err
	}

	s.logger.Info("vector_index", "Project indexed", map[string]interface{}{
		"project_id": projectId,
		"collection": collection,
		"indexed":    indexed,
		"created":    created,
	})
	if pubErr := s.publisher.Publish(ctx, events.ProjectIndexed(projectId, collection, indexed)); pubErr != nil {
		s.logger.Warn("events", "Failed to publish event", map[string]interface{}{
			"event": events.EventProjectIndexed,
			"error": pubErr.Error(),
		})
	}
	return res, nil
}

func (s *vectorIndexService) IndexProject(ctx context.Context, projectId string, reset bool) (*dto.IndexResult, error) {
	projectId, err := normalizeProjectId(projectId)
	if err != nil {
		return nil, err
	}

	var chunks []*entity.Chunk
	for page := 1; ; page++ {
		batch, err := s.chunkService.ListProjectChunks(ctx, projectId, page, indexPageSize)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, batch...)
		if len(batch) < indexPageSize {
			break
		}
	}

	return s.IndexIntoVectorDB(ctx, projectId, chunks, reset)
}

func (s *vectorIndexService) invalidateAnswers(ctx context.Context, projectId string) {
	if s.answerCache == nil {
		return
	}
	if err := s.answerCache.InvalidateProject(ctx, projectId); err != nil {
		s.logger.Warn("vector_index", "Answer cache invalidation failed", map[string]interface{}{
			"project_id": projectId,
			"error":      err.Error(),
		})
	}
}
