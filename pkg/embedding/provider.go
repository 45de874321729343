package embedding

import (
	"context"
	"errors"
	"time"
)

type TaskType string

// Document vectors are stored, Query vectors are searched with.
const (
	TaskTypeDocument TaskType = "RETRIEVAL_DOCUMENT"
	TaskTypeQuery    TaskType = "RETRIEVAL_QUERY"
)

type Backend string

const (
	BackendOpenAI Backend = "OPENAI"
	BackendCohere Backend = "COHERE"
	BackendOllama Backend = "OLLAMA"
	BackendJina   Backend = "JINA"
	BackendGemini Backend = "GEMINI"
	BackendMock   Backend = "MOCK"
)

var ErrEmptyEmbedding = errors.New("provider returned an empty embedding")

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

func NewResponse(values []float32) *EmbeddingResponse {
	return &EmbeddingResponse{Embedding: EmbeddingResponseEmbedding{Values: values}}
}

// EmbeddingProvider defines the interface for generating text embeddings
type EmbeddingProvider interface {
	Generate(ctx context.Context, text string, taskType TaskType) (*EmbeddingResponse, error)
	EmbeddingSize() int
}

// Config is shared by the HTTP backends. Zero fields fall back to backend defaults.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	Size          int
	InputMaxChars int
	Timeout       time.Duration
}

func (c Config) HTTPTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 30 * time.Second
	}
	return c.Timeout
}
