package factory

import (
	"testing"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/vectordb"
	"rag-pipeline-be/pkg/vectordb/memory"
	"rag-pipeline-be/pkg/vectordb/qdrant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVectorIndex(t *testing.T) {
	idx, err := NewVectorIndex(Config{Backend: "memory"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Index{}, idx)

	idx, err = NewVectorIndex(Config{Backend: vectordb.BackendQdrant, QdrantURL: "http://localhost:6333"}, nil)
	require.NoError(t, err)
	assert.IsType(t, &qdrant.Index{}, idx)

	_, err = NewVectorIndex(Config{Backend: vectordb.BackendQdrant}, nil)
	assert.ErrorIs(t, err, apperror.ErrValidationFailed)

	_, err = NewVectorIndex(Config{Backend: vectordb.BackendPgvector}, nil)
	assert.Error(t, err)

	_, err = NewVectorIndex(Config{Backend: "FAISS"}, nil)
	assert.ErrorIs(t, err, apperror.ErrUnsupportedProvider)
}
