package mock

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"

	"rag-pipeline-be/pkg/embedding"
)

const defaultSize = 64

// Provider builds deterministic bag-of-words vectors without a model.
// Texts sharing words score higher under cosine similarity.
type Provider struct {
	size int
}

var _ embedding.EmbeddingProvider = (*Provider)(nil)

func New(size int) *Provider {
	if size <= 0 {
		size = defaultSize
	}
	return &Provider{size: size}
}

func (p *Provider) EmbeddingSize() int {
	return p.size
}

func tokens(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func (p *Provider) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	words := tokens(text)
	if len(words) == 0 {
		return nil, embedding.ErrEmptyEmbedding
	}

	vec := make([]float32, p.size)
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		sum := h.Sum64()
		idx := int(sum % uint64(p.size))
		if sum&(1<<63) != 0 {
			vec[idx] -= 1
		} else {
			vec[idx] += 1
		}
	}
	return embedding.NewResponse(embedding.Normalize(vec)), nil
}
