package prompt

import (
	"strings"

	"rag-pipeline-be/pkg/llm"
)

const (
	documentSeparator = "\n"
	sectionSeparator  = "\n\n"
)

type Document struct {
	Text  string
	Score float64
}

type RAGPrompt struct {
	SystemPrompt string
	FullPrompt   string
	// History is the seed conversation: the system instruction only.
	History []llm.Message
}

// RAGBuilder assembles grounded prompts from the rag template group.
type RAGBuilder struct {
	registry *Registry
}

func NewRAGBuilder(registry *Registry) *RAGBuilder {
	return &RAGBuilder{registry: registry}
}

// Build renders every part before returning, so a missing template never
// yields a partial prompt.
func (b *RAGBuilder) Build(locale, query string, docs []Document) (*RAGPrompt, error) {
	systemPrompt, err := b.registry.Render(GroupRAG, KeySystemPrompt, locale, nil)
	if err != nil {
		return nil, err
	}

	blocks := make([]string, 0, len(docs))
	for i, doc := range docs {
		block, err := b.registry.Render(GroupRAG, KeyDocumentPrompt, locale, map[string]any{
			"DocNum":    i + 1,
			"ChunkText": doc.Text,
		})
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	footer, err := b.registry.Render(GroupRAG, KeyFooterPrompt, locale, map[string]any{
		"Query": query,
	})
	if err != nil {
		return nil, err
	}

	fullPrompt := strings.Join([]string{
		strings.Join(blocks, documentSeparator),
		footer,
	}, sectionSeparator)

	return &RAGPrompt{
		SystemPrompt: systemPrompt,
		FullPrompt:   fullPrompt,
		History:      []llm.Message{{Role: llm.RoleSystem, Content: systemPrompt}},
	}, nil
}
