package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rag-pipeline-be/pkg/embedding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	var got embeddingRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"index":0,"embedding":[3,4]}]}`))
	}))
	defer srv.Close()

	p := New(embedding.Config{APIKey: "sk-test", BaseURL: srv.URL + "/", Size: 2, InputMaxChars: 5})
	res, err := p.Generate(context.Background(), "hello world", embedding.TaskTypeDocument)
	require.NoError(t, err)

	assert.Equal(t, "hello", got.Input[0])
	assert.Equal(t, 2, got.Dimensions)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, res.Embedding.Values, 1e-6)
	assert.Equal(t, 2, p.EmbeddingSize())
}

func TestGenerateErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"no key"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	_, err := New(embedding.Config{BaseURL: srv.URL}).Generate(context.Background(), "x", embedding.TaskTypeQuery)
	assert.ErrorContains(t, err, "401")

	_, err = New(embedding.Config{BaseURL: srv.URL, APIKey: "k"}).Generate(context.Background(), "x", embedding.TaskTypeQuery)
	assert.ErrorIs(t, err, embedding.ErrEmptyEmbedding)
}
