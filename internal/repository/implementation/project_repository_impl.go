package implementation

import (
	"context"
	"database/sql"
	"errors"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/mapper"
	"rag-pipeline-be/internal/model"
	"rag-pipeline-be/internal/repository/contract"
	"rag-pipeline-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ProjectMapper
}

func NewProjectRepository(db *gorm.DB) contract.ProjectRepository {
	return &ProjectRepositoryImpl{
		db:     db,
		mapper: mapper.NewProjectMapper(),
	}
}

func applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ProjectRepositoryImpl) Create(ctx context.Context, project *entity.Project) error {
	if project.Id == uuid.Nil {
		project.Id = uuid.New()
	}
	m := r.mapper.ToModel(project)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*project = *r.mapper.ToEntity(m)
	return nil
}

func (r *ProjectRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Project, error) {
	var m model.Project
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *ProjectRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Project, error) {
	var models []*model.Project
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ProjectRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Project{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ProjectRepositoryImpl) MaxProjectIndex(ctx context.Context) (int, error) {
	var maxIndex sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Project{}).
		Select("MAX(project_index)").
		Scan(&maxIndex).Error
	if err != nil {
		return 0, err
	}
	if !maxIndex.Valid {
		return -1, nil
	}
	return int(maxIndex.Int64), nil
}
