package llm

import (
	"context"
	"strings"
	"time"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Backend string

const (
	BackendOpenAI Backend = "OPENAI"
	BackendCohere Backend = "COHERE"
	BackendOllama Backend = "OLLAMA"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// Apply folds options over defaults.
func Apply(defaults Options, options ...Option) Options {
	for _, o := range options {
		o(&defaults)
	}
	return defaults
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// Config is shared by the HTTP backends. Zero fields fall back to backend defaults.
type Config struct {
	APIKey          string
	BaseURL         string
	Model           string
	InputMaxChars   int
	OutputMaxTokens int
	Temperature     float64
	Timeout         time.Duration
}

func (c Config) HTTPTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 120 * time.Second
	}
	return c.Timeout
}

// ProcessText trims the prompt and cuts it to maxChars runes. maxChars <= 0 keeps it whole.
func ProcessText(text string, maxChars int) string {
	text = strings.TrimSpace(text)
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return strings.TrimSpace(string(runes[:maxChars]))
}
