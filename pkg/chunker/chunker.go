package chunker

import (
	"strings"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/apperror"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// Chunk is one segment of a source text with its position in the split.
type Chunk struct {
	Content     string
	ChunkID     int
	TotalChunks int
	ChunkSize   int
	Metadata    map[string]any
}

type Option func(*Chunker)

func WithLogger(l logger.ILogger) Option {
	return func(c *Chunker) {
		c.log = l
	}
}

// Chunker is a character-window splitter. Lengths are counted in runes.
type Chunker struct {
	size    int
	overlap int
	clamped bool
	log     logger.ILogger
}

func NewChunker(size, overlap int, opts ...Option) (*Chunker, error) {
	if size <= 0 {
		return nil, apperror.NewValidationError("chunk_size", "must be greater than zero")
	}
	if overlap < 0 {
		return nil, apperror.NewValidationError("chunk_overlap", "must not be negative")
	}

	c := &Chunker{size: size, overlap: overlap, log: logger.NewNopLogger()}
	for _, opt := range opts {
		opt(c)
	}

	if overlap >= size {
		// a one-rune window cannot overlap its successor
		c.overlap = min(max(1, size/5), size-1)
		c.clamped = true
		c.log.Warn("chunker", "chunk_overlap too large, adjusted", map[string]interface{}{
			"chunk_size":        size,
			"requested_overlap": overlap,
			"overlap":           c.overlap,
		})
	}

	return c, nil
}

func (c *Chunker) ChunkSize() int { return c.size }
func (c *Chunker) Overlap() int   { return c.overlap }

// Clamped reports whether the requested overlap was corrected at construction.
func (c *Chunker) Clamped() bool { return c.clamped }

// Split cuts text into windows of at most ChunkSize runes, each starting
// ChunkSize-Overlap runes after the previous one. Metadata is copied into every chunk.
func (c *Chunker) Split(text string, metadata map[string]any) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	step := c.size - c.overlap

	var windows []string
	if total <= c.size {
		windows = []string{text}
	} else {
		for start := 0; start < total; start += step {
			end := min(start+c.size, total)
			windows = append(windows, string(runes[start:end]))
		}
	}

	// total_chunks is only known once the split is complete
	chunks := make([]Chunk, len(windows))
	for i, w := range windows {
		chunks[i] = Chunk{
			Content:     w,
			ChunkID:     i,
			TotalChunks: len(windows),
			ChunkSize:   len([]rune(w)),
			Metadata:    copyMetadata(metadata),
		}
	}
	return chunks
}

func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
