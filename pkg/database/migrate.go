package database

import (
	"rag-pipeline-be/internal/model"

	"gorm.io/gorm"
)

// Models lists the relational tables owned by the persistence layer.
func Models() []interface{} {
	return []interface{}{
		&model.Project{},
		&model.Chunk{},
	}
}

// AutoMigrate creates the relational tables and their indexes.
// Postgres extensions are installed by cmd/migrate.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
