package cohere

import (
	"testing"

	"rag-pipeline-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestBuildRequestMapsRoles(t *testing.T) {
	p := New(llm.Config{APIKey: "k"})
	req := p.buildRequest([]llm.Message{
		{Role: llm.RoleSystem, Content: "You are helpful."},
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, Content: "hello"},
		{Role: llm.RoleUser, Content: "question"},
	}, llm.Options{Model: "command-r", MaxTokens: 10})

	assert.Equal(t, "question", req.Message)
	assert.Equal(t, "You are helpful.", req.Preamble)
	assert.Equal(t, []chatTurn{
		{Role: "USER", Message: "hi"},
		{Role: "CHATBOT", Message: "hello"},
	}, req.ChatHistory)
}
