package factory

import (
	"fmt"
	"strings"
	"time"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/vectordb"
	"rag-pipeline-be/pkg/vectordb/memory"
	"rag-pipeline-be/pkg/vectordb/pgvector"
	"rag-pipeline-be/pkg/vectordb/qdrant"

	"gorm.io/gorm"
)

type Config struct {
	Backend      vectordb.Backend
	Distance     vectordb.Distance
	QdrantURL    string
	QdrantAPIKey string
	Timeout      time.Duration
}

// NewVectorIndex builds the configured backend. The pgvector backend reuses db.
func NewVectorIndex(cfg Config, db *gorm.DB) (vectordb.VectorIndex, error) {
	switch vectordb.Backend(strings.ToUpper(string(cfg.Backend))) {
	case vectordb.BackendPgvector:
		if db == nil {
			return nil, fmt.Errorf("pgvector backend requires a database connection")
		}
		return pgvector.New(db, cfg.Distance), nil
	case vectordb.BackendQdrant:
		if cfg.QdrantURL == "" {
			return nil, apperror.NewValidationError("QDRANT_URL", "required for the qdrant backend")
		}
		return qdrant.New(qdrant.Config{
			URL:      cfg.QdrantURL,
			APIKey:   cfg.QdrantAPIKey,
			Distance: cfg.Distance,
			Timeout:  cfg.Timeout,
		}), nil
	case vectordb.BackendMemory:
		return memory.New(cfg.Distance), nil
	default:
		return nil, fmt.Errorf("%w: vector backend %q", apperror.ErrUnsupportedProvider, cfg.Backend)
	}
}
