package factory

import (
	"fmt"
	"strings"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/llm/cohere"
	"rag-pipeline-be/pkg/llm/ollama"
	"rag-pipeline-be/pkg/llm/openai"
)

func NewLLMProvider(backend llm.Backend, cfg llm.Config) (llm.LLMProvider, error) {
	switch llm.Backend(strings.ToUpper(string(backend))) {
	case llm.BackendOpenAI:
		return openai.New(cfg), nil
	case llm.BackendCohere:
		if cfg.APIKey == "" {
			return nil, apperror.NewValidationError("COHERE_API_KEY", "required for the cohere backend")
		}
		return cohere.New(cfg), nil
	case llm.BackendOllama:
		return ollama.NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("%w: generation backend %q", apperror.ErrUnsupportedProvider, backend)
	}
}
