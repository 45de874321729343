package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"rag-pipeline-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Paris"}}]}`))
	}))
	defer srv.Close()

	p := New(llm.Config{BaseURL: srv.URL, Model: "m", InputMaxChars: 8, OutputMaxTokens: 64})
	answer, err := p.Chat(context.Background(), []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "what is the capital of france"},
	}, llm.WithTemperature(0.2))
	require.NoError(t, err)

	assert.Equal(t, "Paris", answer)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, 64, got.MaxTokens)
	assert.Equal(t, 0.2, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "what is", got.Messages[1].Content)
}

func TestChatDeclined(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	answer, err := New(llm.Config{BaseURL: srv.URL}).Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Empty(t, answer)
}

func TestChatServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(llm.Config{BaseURL: srv.URL}).Generate(context.Background(), "hi")
	assert.ErrorContains(t, err, "429")
}
