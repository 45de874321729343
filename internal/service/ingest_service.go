package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/tracer"
	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/chunker"
	"rag-pipeline-be/pkg/events"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

type IIngestService interface {
	// Process chunks raw text and stores it as one new file of the project.
	Process(ctx context.Context, req dto.IngestRequest) (*dto.IngestResult, error)
	SaveUpload(ctx context.Context, projectId string, file *multipart.FileHeader) (*dto.UploadResponse, error)
	ProcessFile(ctx context.Context, req dto.ProcessFileRequest) (*dto.IngestResult, error)
	// ResetProject drops the stored chunks and the vector collection of a project.
	ResetProject(ctx context.Context, projectId string) (*dto.ResetProjectResponse, error)
}

type IngestOptions struct {
	ChunkSize        int
	ChunkOverlap     int
	UploadDir        string
	MaxFileSize      int64
	AllowedFileTypes []string
}

type ingestService struct {
	projectService IProjectService
	chunkService   IChunkService
	vectorIndex    IVectorIndexService
	publisher      events.Publisher
	logger         logger.ILogger
	opts           IngestOptions
}

func NewIngestService(
	projectService IProjectService,
	chunkService IChunkService,
	vectorIndex IVectorIndexService,
	publisher events.Publisher,
	log logger.ILogger,
	opts IngestOptions,
) IIngestService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = chunker.DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = chunker.DefaultOverlap
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ingestService{
		projectService: projectService,
		chunkService:   chunkService,
		vectorIndex:    vectorIndex,
		publisher:      publisher,
		logger:         log,
		opts:           opts,
	}
}

func (s *ingestService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("events", "Failed to publish event", map[string]interface{}{
			"event": event.EventType(),
			"error": err.Error(),
		})
	}
}

func (s *ingestService) ResetProject(ctx context.Context, projectId string) (*dto.ResetProjectResponse, error) {
	deleted, err := s.chunkService.ResetProject(ctx, projectId)
	if err != nil {
		return nil, err
	}
	if err := s.vectorIndex.ResetCollection(ctx, projectId); err != nil {
		return nil, err
	}

	s.publish(ctx, events.ProjectReset(projectId, deleted))
	return &dto.ResetProjectResponse{ProjectId: projectId, DeletedChunks: deleted}, nil
}

func (s *ingestService) Process(ctx context.Context, req dto.IngestRequest) (res *dto.IngestResult, err error) {
	ctx, span := tracer.Start(ctx, "ingest.process",
		attribute.String("project_id", req.ProjectId),
		attribute.String("filename", req.Filename),
	)
	defer func() { tracer.End(span, err) }()

	if strings.TrimSpace(req.Text) == "" {
		return nil, apperror.NewValidationError("text", "must not be empty")
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, apperror.NewValidationError("filename", "must not be empty")
	}

	// the chunker is validated before anything is created or reset
	var ch *chunker.Chunker
	if req.LinesPerChunk <= 0 {
		size, reqOverlap := req.ChunkSize, req.ChunkOverlap
		// both omitted: configured defaults
		if size <= 0 {
			size = s.opts.ChunkSize
			if reqOverlap == 0 {
				reqOverlap = s.opts.ChunkOverlap
			}
		}
		ch, err = chunker.NewChunker(size, reqOverlap, chunker.WithLogger(s.logger))
		if err != nil {
			pe := apperror.NewPipelineError(apperror.StageChunking, req.ProjectId, err)
			pe.Filename = req.Filename
			return nil, pe
		}
	}

	project, err := s.projectService.GetOrCreate(ctx, req.ProjectId)
	if err != nil {
		return nil, err
	}

	metadata := make(map[string]any, len(req.Metadata)+2)
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["project_id"] = project.ProjectId
	metadata["filename"] = req.Filename

	var (
		chunks  []chunker.Chunk
		overlap int
		clamped bool
	)
	if ch == nil {
		chunks = chunker.SplitByLines(req.Text, req.LinesPerChunk, metadata)
	} else {
		chunks = ch.Split(req.Text, metadata)
		overlap, clamped = ch.Overlap(), ch.Clamped()
	}

	if req.DoReset {
		if _, err := s.ResetProject(ctx, project.ProjectId); err != nil {
			return nil, err
		}
	}

	inserted, err := s.chunkService.InsertChunks(ctx, project.ProjectId, req.Filename, chunks)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ingest", "File ingested", map[string]interface{}{
		"project_id":      project.ProjectId,
		"filename":        req.Filename,
		"file_index":      inserted.FileIndex,
		"chunks":          inserted.Inserted,
		"overlap_clamped": clamped,
	})
	s.publish(ctx, events.ChunksInserted(project.ProjectId, req.Filename, inserted.FileIndex, inserted.Inserted))

	return &dto.IngestResult{
		ProjectId:      project.ProjectId,
		Filename:       req.Filename,
		FileIndex:      inserted.FileIndex,
		ChunksCreated:  inserted.Inserted,
		ChunkOverlap:   overlap,
		OverlapClamped: clamped,
	}, nil
}

func (s *ingestService) SaveUpload(ctx context.Context, projectId string, file *multipart.FileHeader) (*dto.UploadResponse, error) {
	project, err := s.projectService.GetOrCreate(ctx, projectId)
	if err != nil {
		return nil, err
	}

	if s.opts.MaxFileSize > 0 && file.Size > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", apperror.ErrInvalidFile, file.Size, s.opts.MaxFileSize)
	}
	contentType, _, _ := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if len(s.opts.AllowedFileTypes) > 0 && !slices.Contains(s.opts.AllowedFileTypes, contentType) {
		return nil, fmt.Errorf("%w: content type %q is not allowed", apperror.ErrInvalidFile, contentType)
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrInvalidFile, err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.opts.UploadDir, 0755); err != nil {
		return nil, err
	}

	fileId := fmt.Sprintf("%s_%s%s", project.ProjectId, uuid.NewString(), strings.ToLower(filepath.Ext(file.Filename)))
	dst, err := os.Create(filepath.Join(s.opts.UploadDir, fileId))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		return nil, err
	}

	s.logger.Info("ingest", "File uploaded", map[string]interface{}{
		"project_id": project.ProjectId,
		"file_id":    fileId,
		"size":       written,
	})
	return &dto.UploadResponse{ProjectId: project.ProjectId, FileId: fileId, Size: written}, nil
}

func (s *ingestService) ProcessFile(ctx context.Context, req dto.ProcessFileRequest) (*dto.IngestResult, error) {
	fileId := filepath.Base(req.FileId)
	if fileId != req.FileId || fileId == "." {
		return nil, apperror.NewValidationError("file_id", "must be a bare file name")
	}

	raw, err := os.ReadFile(filepath.Join(s.opts.UploadDir, fileId))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrFileNotFound, fileId)
	}
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(raw) {
		return nil, fmt.Errorf("%w: %s is not UTF-8 text", apperror.ErrInvalidFile, fileId)
	}

	return s.Process(ctx, dto.IngestRequest{
		ProjectId:     req.ProjectId,
		Filename:      fileId,
		Text:          string(raw),
		ChunkSize:     req.ChunkSize,
		ChunkOverlap:  req.ChunkOverlap,
		LinesPerChunk: req.LinesPerChunk,
		DoReset:       req.DoReset,
	})
}
