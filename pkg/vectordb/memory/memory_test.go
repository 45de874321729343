package memory

import (
	"context"
	"testing"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/vectordb"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexLifecycle(t *testing.T) {
	ctx := context.Background()
	idx := New(vectordb.DistanceCosine)

	exists, err := idx.CollectionExists(ctx, "collection_a")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, idx.CreateCollection(ctx, "collection_a", 2))
	assert.Error(t, idx.CreateCollection(ctx, "collection_a", 2))

	info, err := idx.GetCollectionInfo(ctx, "collection_a")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Size)
	assert.Equal(t, int64(0), info.PointsCount)

	require.NoError(t, idx.DeleteCollection(ctx, "collection_a"))
	require.NoError(t, idx.DeleteCollection(ctx, "collection_a"))

	_, err = idx.GetCollectionInfo(ctx, "collection_a")
	assert.ErrorIs(t, err, apperror.ErrCollectionNotFound)
}

func TestSearchOrdering(t *testing.T) {
	ctx := context.Background()
	idx := New(vectordb.DistanceCosine)
	require.NoError(t, idx.CreateCollection(ctx, "c", 2))

	require.NoError(t, idx.Upsert(ctx, "c", []vectordb.Record{
		{ID: "far", Vector: []float32{0, 1}, Text: "far"},
		{ID: "tie-1", Vector: []float32{1, 1}, Text: "tie-1"},
		{ID: "near", Vector: []float32{1, 0}, Text: "near"},
		{ID: "tie-2", Vector: []float32{2, 2}, Text: "tie-2"},
	}))

	hits, err := idx.Search(ctx, "c", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, hits, 4)

	assert.Equal(t, "near", hits[0].Text)
	assert.Equal(t, "tie-1", hits[1].Text)
	assert.Equal(t, "tie-2", hits[2].Text)
	assert.Equal(t, "far", hits[3].Text)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)

	limited, err := idx.Search(ctx, "c", []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	idx := New(vectordb.DistanceDot)
	require.NoError(t, idx.CreateCollection(ctx, "c", 1))

	require.NoError(t, idx.Upsert(ctx, "c", []vectordb.Record{{ID: "a", Vector: []float32{1}, Text: "v1"}}))
	require.NoError(t, idx.Upsert(ctx, "c", []vectordb.Record{{ID: "a", Vector: []float32{2}, Text: "v2"}}))

	info, err := idx.GetCollectionInfo(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.PointsCount)

	hits, err := idx.Search(ctx, "c", []float32{1}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "v2", hits[0].Text)
	assert.InDelta(t, 2.0, hits[0].Score, 1e-9)
}

func TestUpsertErrors(t *testing.T) {
	ctx := context.Background()
	idx := New("")

	err := idx.Upsert(ctx, "missing", []vectordb.Record{{ID: "a", Vector: []float32{1}}})
	assert.ErrorIs(t, err, apperror.ErrCollectionNotFound)

	require.NoError(t, idx.CreateCollection(ctx, "c", 3))
	err = idx.Upsert(ctx, "c", []vectordb.Record{{ID: "a", Vector: []float32{1}}})
	assert.ErrorIs(t, err, apperror.ErrDimensionMismatch)

	_, err = idx.Search(ctx, "missing", []float32{1, 2, 3}, 1)
	assert.ErrorIs(t, err, apperror.ErrCollectionNotFound)
}
