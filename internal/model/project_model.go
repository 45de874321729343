package model

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Id           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProjectId    string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_projects_project_id"`
	ProjectIndex int       `gorm:"not null;uniqueIndex:idx_projects_project_index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Project) TableName() string {
	return "projects"
}
