package factory

import (
	"fmt"
	"strings"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/embedding"
	"rag-pipeline-be/pkg/embedding/cohere"
	"rag-pipeline-be/pkg/embedding/gemini"
	"rag-pipeline-be/pkg/embedding/jina"
	"rag-pipeline-be/pkg/embedding/mock"
	"rag-pipeline-be/pkg/embedding/ollama"
	"rag-pipeline-be/pkg/embedding/openai"
)

func NewEmbeddingProvider(backend embedding.Backend, cfg embedding.Config) (embedding.EmbeddingProvider, error) {
	switch embedding.Backend(strings.ToUpper(string(backend))) {
	case embedding.BackendOpenAI:
		return openai.New(cfg), nil
	case embedding.BackendCohere:
		if cfg.APIKey == "" {
			return nil, apperror.NewValidationError("COHERE_API_KEY", "required for the cohere backend")
		}
		return cohere.New(cfg), nil
	case embedding.BackendOllama:
		return ollama.New(cfg), nil
	case embedding.BackendJina:
		if cfg.APIKey == "" {
			return nil, apperror.NewValidationError("JINA_API_KEY", "required for the jina backend")
		}
		return jina.NewJinaProvider(cfg), nil
	case embedding.BackendGemini:
		if cfg.APIKey == "" {
			return nil, apperror.NewValidationError("GOOGLE_GEMINI_API_KEY", "required for the gemini backend")
		}
		return gemini.New(cfg), nil
	case embedding.BackendMock:
		return mock.New(cfg.Size), nil
	default:
		return nil, fmt.Errorf("%w: embedding backend %q", apperror.ErrUnsupportedProvider, backend)
	}
}
