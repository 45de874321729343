package specification

import (
	"fmt"

	"gorm.io/gorm"
)

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Pagination
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.Limit).Offset(s.Offset)
}

// Page converts a 1-based page number into a Pagination.
func Page(page, pageSize int) Pagination {
	if page < 1 {
		page = 1
	}
	return Pagination{Limit: pageSize, Offset: (page - 1) * pageSize}
}

// Scoped adapts a gorm scope function.
type Scoped func(*gorm.DB) *gorm.DB

func (s Scoped) Apply(db *gorm.DB) *gorm.DB {
	return s(db)
}
