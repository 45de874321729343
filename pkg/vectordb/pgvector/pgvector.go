package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/vectordb"

	pgv "github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Collection is the registry row for one named collection.
type Collection struct {
	Name      string `gorm:"primaryKey;type:varchar(512)"`
	Dimension int    `gorm:"not null"`
	Distance  string `gorm:"type:varchar(16);not null"`
	CreatedAt time.Time
}

func (Collection) TableName() string {
	return "vector_collections"
}

// Record is one stored vector. (collection, record_key) is the upsert key.
type Record struct {
	Id         uint64         `gorm:"primaryKey;autoIncrement"`
	Collection string         `gorm:"type:varchar(512);not null;uniqueIndex:idx_vector_records_key,priority:1;index:idx_vector_records_collection"`
	RecordKey  string         `gorm:"type:varchar(255);not null;uniqueIndex:idx_vector_records_key,priority:2"`
	Content    string         `gorm:"type:text"`
	Metadata   datatypes.JSON `gorm:"type:jsonb"`
	Embedding  pgv.Vector     `gorm:"type:vector"`
	CreatedAt  time.Time
}

func (Record) TableName() string {
	return "vector_records"
}

// Index stores collections in Postgres using the vector extension.
// The gorm handle is shared with the relational store and is not closed here.
type Index struct {
	db       *gorm.DB
	distance vectordb.Distance
}

var _ vectordb.VectorIndex = (*Index)(nil)

func New(db *gorm.DB, distance vectordb.Distance) *Index {
	if distance == "" {
		distance = vectordb.DistanceCosine
	}
	return &Index{db: db, distance: distance}
}

// Migrate installs the extension and the registry tables.
func Migrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to install vector extension: %w", err)
	}
	return db.AutoMigrate(&Collection{}, &Record{})
}

func (s *Index) findCollection(ctx context.Context, name string) (*Collection, error) {
	var c Collection
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return &c, nil
}

func (s *Index) CollectionExists(ctx context.Context, name string) (bool, error) {
	c, err := s.findCollection(ctx, name)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

func (s *Index) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	c, err := s.findCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, vectordb.CollectionNotFound(name)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Where("collection = ?", name).Count(&count).Error; err != nil {
		return nil, apperror.FromStore(err)
	}

	return &vectordb.CollectionInfo{
		Name:        c.Name,
		Size:        c.Dimension,
		Distance:    vectordb.Distance(c.Distance),
		PointsCount: count,
	}, nil
}

func (s *Index) ListCollections(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&Collection{}).Order("name ASC").Pluck("name", &names).Error
	if err != nil {
		return nil, apperror.FromStore(err)
	}
	return names, nil
}

func (s *Index) CreateCollection(ctx context.Context, name string, size int) error {
	if size <= 0 {
		return apperror.NewValidationError("embedding_size", "must be greater than zero")
	}
	c := &Collection{Name: name, Dimension: size, Distance: string(s.distance)}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return apperror.FromStore(err)
	}
	return nil
}

func (s *Index) DeleteCollection(ctx context.Context, name string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection = ?", name).Delete(&Record{}).Error; err != nil {
			return err
		}
		return tx.Where("name = ?", name).Delete(&Collection{}).Error
	})
	if err != nil {
		return apperror.FromStore(err)
	}
	return nil
}

func (s *Index) Upsert(ctx context.Context, name string, records []vectordb.Record) error {
	if len(records) == 0 {
		return nil
	}
	c, err := s.findCollection(ctx, name)
	if err != nil {
		return err
	}
	if c == nil {
		return vectordb.CollectionNotFound(name)
	}
	if err := vectordb.CheckDimensions(c.Dimension, records); err != nil {
		return err
	}

	models := make([]*Record, len(records))
	for i, r := range records {
		payload, err := json.Marshal(r.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for record %s: %w", r.ID, err)
		}
		models[i] = &Record{
			Collection: name,
			RecordKey:  r.ID,
			Content:    r.Text,
			Metadata:   datatypes.JSON(payload),
			Embedding:  pgv.NewVector(r.Vector),
		}
	}

	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "metadata", "embedding"}),
		}).
		Create(&models).Error
	if err != nil {
		return apperror.FromStore(err)
	}
	return nil
}

// scoreExpressions returns the similarity select and the ascending distance order.
// <=> is cosine distance, <#> is negative inner product.
func (s *Index) scoreExpressions(d vectordb.Distance) (string, string) {
	if d == vectordb.DistanceDot {
		return "(embedding <#> ?) * -1", "embedding <#> ?"
	}
	return "1 - (embedding <=> ?)", "embedding <=> ?"
}

func (s *Index) Search(ctx context.Context, name string, vector []float32, limit int) ([]vectordb.SearchHit, error) {
	c, err := s.findCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, vectordb.CollectionNotFound(name)
	}
	if len(vector) != c.Dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			apperror.ErrDimensionMismatch, len(vector), c.Dimension)
	}
	if limit <= 0 {
		limit = 5
	}

	var results []searchRow

	queryVector := pgv.NewVector(vector)
	scoreExpr, orderExpr := s.scoreExpressions(vectordb.Distance(c.Distance))

	err = s.db.WithContext(ctx).
		Table(Record{}.TableName()).
		Select("record_key, content, metadata, "+scoreExpr+" AS score", queryVector).
		Where("collection = ?", name).
		Order(clause.OrderBy{Expression: clause.Expr{SQL: orderExpr, Vars: []interface{}{queryVector}}}).
		Order("id ASC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, apperror.FromStore(err)
	}

	return toHits(results)
}

type searchRow struct {
	RecordKey string
	Content   string
	Metadata  datatypes.JSON
	Score     float64
}

func toHits(rows []searchRow) ([]vectordb.SearchHit, error) {
	hits := make([]vectordb.SearchHit, len(rows))
	for i, r := range rows {
		var metadata map[string]any
		if len(r.Metadata) > 0 {
			if err := json.Unmarshal(r.Metadata, &metadata); err != nil {
				return nil, fmt.Errorf("failed to decode metadata for record %s: %w", r.RecordKey, err)
			}
		}
		hits[i] = vectordb.SearchHit{
			ID:       r.RecordKey,
			Text:     r.Content,
			Score:    r.Score,
			Metadata: metadata,
		}
	}
	return hits, nil
}

func (s *Index) Close() error {
	return nil
}
