package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/scope"
	"rag-pipeline-be/internal/repository/specification"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/pkg/apperror"

	"github.com/google/uuid"
)

type IProjectService interface {
	// Create rejects an existing project id with apperror.ErrDuplicateKey.
	Create(ctx context.Context, projectId string) (*entity.Project, error)
	GetOrCreate(ctx context.Context, projectId string) (*entity.Project, error)
	// Get returns apperror.ErrProjectNotFound for an unknown id.
	Get(ctx context.Context, projectId string) (*entity.Project, error)
	List(ctx context.Context, page, pageSize int) (*dto.ListProjectsResponse, error)
}

type projectService struct {
	uowFactory   unitofwork.RepositoryFactory
	allocator    ISequenceAllocator
	logger       logger.ILogger
	storeTimeout time.Duration
}

func NewProjectService(
	uowFactory unitofwork.RepositoryFactory,
	allocator ISequenceAllocator,
	log logger.ILogger,
	storeTimeout time.Duration,
) IProjectService {
	return &projectService{
		uowFactory:   uowFactory,
		allocator:    allocator,
		logger:       log,
		storeTimeout: storeTimeout,
	}
}

func (s *projectService) find(ctx context.Context, projectId string) (*entity.Project, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByProjectID{ProjectID: projectId})
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return project, nil
}

func (s *projectService) Create(ctx context.Context, projectId string) (*entity.Project, error) {
	projectId, err := normalizeProjectId(projectId)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	existing, err := s.find(ctx, projectId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: project %s already exists", apperror.ErrDuplicateKey, projectId)
	}

	var project *entity.Project
	err = allocateWithRetry(ctx, s.logger, "project_index", func() error {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		index, err := s.allocator.NextProjectIndex(ctx, uow)
		if err != nil {
			return err
		}
		candidate := &entity.Project{
			Id:           uuid.New(),
			ProjectId:    projectId,
			ProjectIndex: index,
			CreatedAt:    time.Now(),
		}
		if err := uow.ProjectRepository().Create(ctx, candidate); err != nil {
			return apperror.FromStore(err)
		}
		project = candidate
		return nil
	})
	if err != nil {
		return nil, apperror.NewPipelineError(apperror.StageAllocation, projectId, err)
	}

	s.logger.Info("allocator", "Project created", map[string]interface{}{
		"project_id":    project.ProjectId,
		"project_index": project.ProjectIndex,
	})
	return project, nil
}

func (s *projectService) GetOrCreate(ctx context.Context, projectId string) (*entity.Project, error) {
	projectId, err := normalizeProjectId(projectId)
	if err != nil {
		return nil, err
	}

	existing, err := s.find(ctx, projectId)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	project, err := s.Create(ctx, projectId)
	if errors.Is(err, apperror.ErrDuplicateKey) {
		// a concurrent caller created it first
		if existing, findErr := s.find(ctx, projectId); findErr == nil && existing != nil {
			return existing, nil
		}
	}
	return project, err
}

func (s *projectService) Get(ctx context.Context, projectId string) (*entity.Project, error) {
	projectId, err := normalizeProjectId(projectId)
	if err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	project, err := s.find(ctx, projectId)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrProjectNotFound, projectId)
	}
	return project, nil
}

func (s *projectService) List(ctx context.Context, page, pageSize int) (*dto.ListProjectsResponse, error) {
	page, pageSize = normalizePage(page, pageSize)
	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	total, err := uow.ProjectRepository().Count(ctx)
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	projects, err := uow.ProjectRepository().FindAll(ctx,
		specification.Scoped(scope.OrderByProjectIndex),
		specification.Page(page, pageSize),
	)
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	res := &dto.ListProjectsResponse{
		Projects:    make([]*dto.ProjectResponse, 0, len(projects)),
		Total:       total,
		TotalPages:  totalPages(total, pageSize),
		CurrentPage: page,
	}
	for _, p := range projects {
		res.Projects = append(res.Projects, dto.NewProjectResponse(p))
	}
	return res, nil
}
