package entity

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Id           uuid.UUID
	ProjectId    string
	ProjectIndex int
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
