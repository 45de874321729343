package specification

import "gorm.io/gorm"

type ByProjectID struct {
	ProjectID string
}

func (s ByProjectID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("project_id = ?", s.ProjectID)
}

type ByFileIndex struct {
	FileIndex int
}

func (s ByFileIndex) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("file_index = ?", s.FileIndex)
}
