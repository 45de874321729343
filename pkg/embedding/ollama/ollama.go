package ollama

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

// Provider implements EmbeddingProvider for local Ollama models (e.g., nomic-embed-text)
type Provider struct {
	cfg    embedding.Config
	client *http.Client
}

var _ embedding.EmbeddingProvider = (*Provider)(nil)

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func New(cfg embedding.Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.Size <= 0 {
		cfg.Size = 768
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.HTTPTimeout()}}
}

func (p *Provider) EmbeddingSize() int {
	return p.cfg.Size
}

// nomic models expect a task prefix on the input.
func prefixed(text string, taskType embedding.TaskType, model string) string {
	if !strings.HasPrefix(model, "nomic") {
		return text
	}
	if taskType == embedding.TaskTypeQuery {
		return "search_query: " + text
	}
	return "search_document: " + text
}

func (p *Provider) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	reqBody := embeddingRequest{
		Model:  p.cfg.Model,
		Prompt: prefixed(embedding.Truncate(text, p.cfg.InputMaxChars), taskType, p.cfg.Model),
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/api/embeddings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.FromRemote(fmt.Errorf("ollama embedding request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama embedding error: %s", string(bodyBytes))
	}

	var ollamaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, err
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	return embedding.NewResponse(embedding.Normalize(embedding.Float64To32(ollamaResp.Embedding))), nil
}
