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
	"rag-pipeline-be/pkg/llm"
)

// Provider calls the Cohere v1 /chat endpoint. The last user message becomes
// the request message; earlier turns go into chat_history.
type Provider struct {
	cfg    llm.Config
	client *http.Client
}

var _ llm.LLMProvider = (*Provider)(nil)

type chatTurn struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

type chatRequest struct {
	Model       string     `json:"model"`
	Message     string     `json:"message"`
	Preamble    string     `json:"preamble,omitempty"`
	ChatHistory []chatTurn `json:"chat_history,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
	Temperature float64    `json:"temperature"`
}

type chatResponse struct {
	Text    string `json:"text"`
	Message string `json:"message,omitempty"`
}

func New(cfg llm.Config) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.cohere.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "command-r"
	}
	if cfg.OutputMaxTokens <= 0 {
		cfg.OutputMaxTokens = 500
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{cfg: cfg, client: &http.Client{Timeout: cfg.HTTPTimeout()}}
}

func cohereRole(role string) string {
	switch role {
	case llm.RoleAssistant, "model":
		return "CHATBOT"
	case llm.RoleSystem:
		return "SYSTEM"
	default:
		return "USER"
	}
}

func (p *Provider) buildRequest(history []llm.Message, opts llm.Options) chatRequest {
	req := chatRequest{
		Model:       opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}

	turns := history
	if n := len(turns); n > 0 && turns[n-1].Role == llm.RoleUser {
		req.Message = llm.ProcessText(turns[n-1].Content, p.cfg.InputMaxChars)
		turns = turns[:n-1]
	}

	var preamble []string
	for _, m := range turns {
		if m.Role == llm.RoleSystem {
			preamble = append(preamble, m.Content)
			continue
		}
		req.ChatHistory = append(req.ChatHistory, chatTurn{
			Role:    cohereRole(m.Role),
			Message: llm.ProcessText(m.Content, p.cfg.InputMaxChars),
		})
	}
	req.Preamble = strings.Join(preamble, "\n")
	return req
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := llm.Apply(llm.Options{
		Model:       p.cfg.Model,
		MaxTokens:   p.cfg.OutputMaxTokens,
		Temperature: p.cfg.Temperature,
	}, options...)

	jsonData, err := json.Marshal(p.buildRequest(history, opts))
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/chat", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", apperror.FromRemote(fmt.Errorf("cohere chat request failed: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cohere api error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var out chatResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return out.Text, nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, options...)
}
