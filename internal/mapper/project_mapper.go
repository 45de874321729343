package mapper

import (
	"time"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/model"
)

type ProjectMapper struct{}

func NewProjectMapper() *ProjectMapper {
	return &ProjectMapper{}
}

func (m *ProjectMapper) ToEntity(p *model.Project) *entity.Project {
	if p == nil {
		return nil
	}

	var updatedAt *time.Time
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		updatedAt = &t
	}

	return &entity.Project{
		Id:           p.Id,
		ProjectId:    p.ProjectId,
		ProjectIndex: p.ProjectIndex,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ProjectMapper) ToModel(p *entity.Project) *model.Project {
	if p == nil {
		return nil
	}

	var updatedAt time.Time
	if p.UpdatedAt != nil {
		updatedAt = *p.UpdatedAt
	}

	return &model.Project{
		Id:           p.Id,
		ProjectId:    p.ProjectId,
		ProjectIndex: p.ProjectIndex,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    updatedAt,
	}
}

func (m *ProjectMapper) ToEntities(projects []*model.Project) []*entity.Project {
	entities := make([]*entity.Project, len(projects))
	for i, p := range projects {
		entities[i] = m.ToEntity(p)
	}
	return entities
}
