package vectordb

import (
	"context"
	"fmt"
	"math"
	"strings"

	"rag-pipeline-be/pkg/apperror"
)

type Backend string

const (
	BackendPgvector Backend = "PGVECTOR"
	BackendQdrant   Backend = "QDRANT"
	BackendMemory   Backend = "MEMORY"
)

type Distance string

const (
	DistanceCosine Distance = "COSINE"
	DistanceDot    Distance = "DOT"
)

func ParseDistance(s string) (Distance, error) {
	switch Distance(strings.ToUpper(strings.TrimSpace(s))) {
	case DistanceCosine, "":
		return DistanceCosine, nil
	case DistanceDot:
		return DistanceDot, nil
	default:
		return "", fmt.Errorf("%w: distance method %q", apperror.ErrUnsupportedProvider, s)
	}
}

// Record is one vector with its payload. ID is stable across re-indexing.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]any
}

type SearchHit struct {
	ID       string
	Text     string
	Score    float64
	Metadata map[string]any
}

type CollectionInfo struct {
	Name        string
	Size        int
	Distance    Distance
	PointsCount int64
}

// VectorIndex is a named-collection vector store.
//
// Upsert and Search return apperror.ErrCollectionNotFound for a missing collection
// and apperror.ErrDimensionMismatch for vectors of the wrong length.
// Search results are ordered by descending score; equal scores keep insertion order.
type VectorIndex interface {
	CollectionExists(ctx context.Context, name string) (bool, error)
	GetCollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string, size int) error
	// DeleteCollection is a no-op for a missing collection.
	DeleteCollection(ctx context.Context, name string) error
	Upsert(ctx context.Context, name string, records []Record) error
	Search(ctx context.Context, name string, vector []float32, limit int) ([]SearchHit, error)
	Close() error
}

func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func DotProduct(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot
}

// Score compares two vectors under the given distance method, higher is closer.
func Score(d Distance, a, b []float32) float64 {
	if d == DistanceDot {
		return DotProduct(a, b)
	}
	return CosineSimilarity(a, b)
}

// CheckDimensions validates every record against the collection size.
func CheckDimensions(size int, records []Record) error {
	for i, r := range records {
		if len(r.Vector) != size {
			return fmt.Errorf("%w: record %d has %d dimensions, collection has %d",
				apperror.ErrDimensionMismatch, i, len(r.Vector), size)
		}
	}
	return nil
}

func CollectionNotFound(name string) error {
	return fmt.Errorf("%w: %s", apperror.ErrCollectionNotFound, name)
}
