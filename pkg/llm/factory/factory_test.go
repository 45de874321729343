package factory

import (
	"testing"

	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/llm/ollama"
	"rag-pipeline-be/pkg/llm/openai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", llm.Config{BaseURL: "http://localhost:11434"})
	require.NoError(t, err)
	assert.IsType(t, &ollama.OllamaProvider{}, p)

	p, err = NewLLMProvider(llm.BackendOpenAI, llm.Config{})
	require.NoError(t, err)
	assert.IsType(t, &openai.Provider{}, p)

	_, err = NewLLMProvider(llm.BackendCohere, llm.Config{})
	assert.ErrorIs(t, err, apperror.ErrValidationFailed)

	_, err = NewLLMProvider("gpt2-local", llm.Config{})
	assert.ErrorIs(t, err, apperror.ErrUnsupportedProvider)
}
