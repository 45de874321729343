package cohere

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/embedding"
)

const (
	defaultBaseURL = "https://api.cohere.ai/v1"
	defaultModel   = "embed-multilingual-light-v3.0"
	defaultSize    = 384
)

// Provider calls the Cohere /embed endpoint.
type Provider struct {
	cfg    embedding.Config
	client *http.Client
}

var _ embedding.EmbeddingProvider = (*Provider)(nil)

type embedRequest struct {
	Model          string   `json:"model"`
	Texts          []string `json:"texts"`
	InputType      string   `json:"input_type"`
	EmbeddingTypes []string `json:"embedding_types"`
}

type embedResponse struct {
	Embeddings struct {
		Float [][]float32 `json:"float"`
	} `json:"embeddings"`
	Message string `json:"message,omitempty"`
}

func New(cfg embedding.Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Size <= 0 {
		cfg.Size = defaultSize
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.HTTPTimeout()}}
}

func (p *Provider) EmbeddingSize() int {
	return p.cfg.Size
}

func inputType(taskType embedding.TaskType) string {
	if taskType == embedding.TaskTypeQuery {
		return "search_query"
	}
	return "search_document"
}

func (p *Provider) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	reqBody := embedRequest{
		Model:          p.cfg.Model,
		Texts:          []string{embedding.Truncate(text, p.cfg.InputMaxChars)},
		InputType:      inputType(taskType),
		EmbeddingTypes: []string{"float"},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/embed", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.FromRemote(fmt.Errorf("cohere embed request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cohere embed error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var out embedResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(out.Embeddings.Float) == 0 || len(out.Embeddings.Float[0]) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	return embedding.NewResponse(embedding.Normalize(out.Embeddings.Float[0])), nil
}
