package scope

import "gorm.io/gorm"

// OrderByChunkPosition orders chunks by ingestion batch, then position in the file.
func OrderByChunkPosition(db *gorm.DB) *gorm.DB {
	return db.Order("file_index ASC").Order("chunk_id ASC")
}

func OrderByProjectIndex(db *gorm.DB) *gorm.DB {
	return db.Order("project_index ASC")
}
