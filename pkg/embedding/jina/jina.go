package jina

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

type JinaProvider struct {
	cfg    embedding.Config
	client *http.Client
}

var _ embedding.EmbeddingProvider = (*JinaProvider)(nil)

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	Task  string   `json:"task,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Object    string    `json:"object"`
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewJinaProvider(cfg embedding.Config) *JinaProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.jina.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "jina-embeddings-v2-base-en"
	}
	if cfg.Size <= 0 {
		cfg.Size = 768
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &JinaProvider{cfg: cfg, client: &http.Client{Timeout: cfg.HTTPTimeout()}}
}

func (p *JinaProvider) EmbeddingSize() int {
	return p.cfg.Size
}

// v3 models take a retrieval task; v2 models reject the field.
func (p *JinaProvider) task(taskType embedding.TaskType) string {
	if !strings.Contains(p.cfg.Model, "v3") {
		return ""
	}
	if taskType == embedding.TaskTypeQuery {
		return "retrieval.query"
	}
	return "retrieval.passage"
}

func (p *JinaProvider) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	reqBody := embeddingRequest{
		Model: p.cfg.Model,
		Input: []string{embedding.Truncate(text, p.cfg.InputMaxChars)},
		Task:  p.task(taskType),
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.cfg.APIKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.FromRemote(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jina api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var jinaResp embeddingResponse
	if err := json.Unmarshal(bodyBytes, &jinaResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if jinaResp.Error != nil {
		return nil, fmt.Errorf("jina api returned error: %s", jinaResp.Error.Message)
	}
	if len(jinaResp.Data) == 0 || len(jinaResp.Data[0].Embedding) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	return embedding.NewResponse(embedding.Normalize(jinaResp.Data[0].Embedding)), nil
}
