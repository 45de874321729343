package implementation

import (
	"context"
	"database/sql"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/mapper"
	"rag-pipeline-be/internal/model"
	"rag-pipeline-be/internal/repository/contract"
	"rag-pipeline-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChunkMapper
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewChunkMapper(),
	}
}

func (r *ChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := make([]*model.Chunk, len(chunks))
	for i, c := range chunks {
		if c.Id == uuid.Nil {
			c.Id = uuid.New()
		}
		m, err := r.mapper.ToModel(c)
		if err != nil {
			return err
		}
		models[i] = m
	}

	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *ChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Chunk, error) {
	var models []*model.Chunk
	query := applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *ChunkRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := applySpecifications(r.db.WithContext(ctx).Model(&model.Chunk{}), specs...)
	err := query.Count(&count).Error
	return count, err
}

func (r *ChunkRepositoryImpl) MaxFileIndex(ctx context.Context, projectId string) (int, error) {
	var maxIndex sql.NullInt64
	err := r.db.WithContext(ctx).
		Model(&model.Chunk{}).
		Where("project_id = ?", projectId).
		Select("MAX(file_index)").
		Scan(&maxIndex).Error
	if err != nil {
		return 0, err
	}
	if !maxIndex.Valid {
		return -1, nil
	}
	return int(maxIndex.Int64), nil
}

func (r *ChunkRepositoryImpl) DeleteByProjectId(ctx context.Context, projectId string) (int64, error) {
	res := r.db.WithContext(ctx).Where("project_id = ?", projectId).Delete(&model.Chunk{})
	return res.RowsAffected, res.Error
}
