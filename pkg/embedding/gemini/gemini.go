package gemini

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

type requestContentPart struct {
	Text string `json:"text"`
}

type requestContent struct {
	Parts []requestContentPart `json:"parts"`
}

type embedContentRequest struct {
	Model                string         `json:"model"`
	Content              requestContent `json:"content"`
	TaskType             string         `json:"task_type,omitempty"`
	OutputDimensionality int            `json:"output_dimensionality,omitempty"`
}

// Provider calls the Gemini embedContent endpoint. The response body already
// matches embedding.EmbeddingResponse.
type Provider struct {
	cfg    embedding.Config
	client *http.Client
}

var _ embedding.EmbeddingProvider = (*Provider)(nil)

func New(cfg embedding.Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-004"
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

func (p *Provider) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	geminiReq := embedContentRequest{
		Model: "models/" + p.cfg.Model,
		Content: requestContent{
			Parts: []requestContentPart{{Text: embedding.Truncate(text, p.cfg.InputMaxChars)}},
		},
		TaskType:             string(taskType),
		OutputDimensionality: p.cfg.Size,
	}
	geminiReqJson, err := json.Marshal(geminiReq)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/models/%s:embedContent", p.cfg.BaseURL, p.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(geminiReqJson))
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", p.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := p.client.Do(req)
	if err != nil {
		return nil, apperror.FromRemote(fmt.Errorf("gemini embedding request failed: %w", err))
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error from gemini response, code %d, body %s", res.StatusCode, string(resByte))
	}

	var resEmbedding embedding.EmbeddingResponse
	if err := json.Unmarshal(resByte, &resEmbedding); err != nil {
		return nil, err
	}
	if len(resEmbedding.Embedding.Values) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	resEmbedding.Embedding.Values = embedding.Normalize(resEmbedding.Embedding.Values)
	return &resEmbedding, nil
}
