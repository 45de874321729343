package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/vectordb"
)

type collection struct {
	size    int
	records []vectordb.Record
	byID    map[string]int
}

// Index keeps collections in process memory and searches by brute force.
type Index struct {
	mu          sync.RWMutex
	distance    vectordb.Distance
	collections map[string]*collection
}

var _ vectordb.VectorIndex = (*Index)(nil)

func New(distance vectordb.Distance) *Index {
	if distance == "" {
		distance = vectordb.DistanceCosine
	}
	return &Index{
		distance:    distance,
		collections: make(map[string]*collection),
	}
}

func (s *Index) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Index) GetCollectionInfo(ctx context.Context, name string) (*vectordb.CollectionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, vectordb.CollectionNotFound(name)
	}
	return &vectordb.CollectionInfo{
		Name:        name,
		Size:        c.size,
		Distance:    s.distance,
		PointsCount: int64(len(c.records)),
	}, nil
}

func (s *Index) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Index) CreateCollection(ctx context.Context, name string, size int) error {
	if size <= 0 {
		return apperror.NewValidationError("embedding_size", "must be greater than zero")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; ok {
		return fmt.Errorf("collection %s already exists", name)
	}
	s.collections[name] = &collection{size: size, byID: make(map[string]int)}
	return nil
}

func (s *Index) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Index) Upsert(ctx context.Context, name string, records []vectordb.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[name]
	if !ok {
		return vectordb.CollectionNotFound(name)
	}
	if err := vectordb.CheckDimensions(c.size, records); err != nil {
		return err
	}
	for _, r := range records {
		r.Vector = append([]float32(nil), r.Vector...)
		if pos, exists := c.byID[r.ID]; exists && r.ID != "" {
			c.records[pos] = r
			continue
		}
		c.byID[r.ID] = len(c.records)
		c.records = append(c.records, r)
	}
	return nil
}

func (s *Index) Search(ctx context.Context, name string, vector []float32, limit int) ([]vectordb.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	if !ok {
		return nil, vectordb.CollectionNotFound(name)
	}
	if len(vector) != c.size {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			apperror.ErrDimensionMismatch, len(vector), c.size)
	}

	hits := make([]vectordb.SearchHit, len(c.records))
	for i, r := range c.records {
		hits[i] = vectordb.SearchHit{
			ID:       r.ID,
			Text:     r.Text,
			Score:    vectordb.Score(s.distance, vector, r.Vector),
			Metadata: r.Metadata,
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (s *Index) Close() error {
	return nil
}
