package dto

import (
	"time"

	"rag-pipeline-be/internal/entity"
)

type CreateProjectRequest struct {
	ProjectId string `json:"project_id" validate:"required,max=255"`
}

type ProjectResponse struct {
	ProjectId    string    `json:"project_id"`
	ProjectIndex int       `json:"project_index"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewProjectResponse(p *entity.Project) *ProjectResponse {
	return &ProjectResponse{
		ProjectId:    p.ProjectId,
		ProjectIndex: p.ProjectIndex,
		CreatedAt:    p.CreatedAt,
	}
}

type ListProjectsResponse struct {
	Projects    []*ProjectResponse `json:"projects"`
	Total       int64              `json:"total"`
	TotalPages  int                `json:"total_pages"`
	CurrentPage int                `json:"current_page"`
}
