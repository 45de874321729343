package chunker

import (
	"strings"
	"testing"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func sampleText(n int) string {
	var b strings.Builder
	for i := 0; b.Len() < n; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	return b.String()[:n]
}

func TestSplitOverlappingWindows(t *testing.T) {
	c, err := NewChunker(1000, 200)
	require.NoError(t, err)

	text := sampleText(2500)
	chunks := c.Split(text, map[string]any{"filename": "a.txt"})

	require.Len(t, chunks, 4)
	for i, ch := range chunks {
		assert.Equal(t, i, ch.ChunkID)
		assert.Equal(t, 4, ch.TotalChunks)
		assert.LessOrEqual(t, ch.ChunkSize, 1000)
		assert.Equal(t, len([]rune(ch.Content)), ch.ChunkSize)
		assert.Equal(t, "a.txt", ch.Metadata["filename"])
		assert.Equal(t, text[i*800:min(i*800+1000, 2500)], ch.Content)
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Content
		tail := prev[800:]
		assert.True(t, strings.HasPrefix(chunks[i].Content, tail[:min(len(tail), len(chunks[i].Content))]))
	}
	assert.Equal(t, chunks[0].Content[800:], chunks[1].Content[:200])
	assert.Equal(t, chunks[1].Content[800:], chunks[2].Content[:200])
}

func TestSplitCoversText(t *testing.T) {
	c, err := NewChunker(300, 50)
	require.NoError(t, err)

	for _, n := range []int{1, 299, 300, 301, 1234, 5000} {
		text := sampleText(n)
		chunks := c.Split(text, nil)

		sum := 0
		seen := map[int]bool{}
		for _, ch := range chunks {
			sum += ch.ChunkSize
			assert.False(t, seen[ch.ChunkID])
			seen[ch.ChunkID] = true
			assert.NotEmpty(t, ch.Content)
		}
		assert.GreaterOrEqual(t, sum, n)
		assert.Len(t, seen, len(chunks))
		for id := 0; id < len(chunks); id++ {
			assert.True(t, seen[id])
		}
	}
}

func TestSplitDeterministic(t *testing.T) {
	c, err := NewChunker(120, 30)
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40)
	assert.Equal(t, c.Split(text, map[string]any{"k": "v"}), c.Split(text, map[string]any{"k": "v"}))
}

func TestSplitEmptyInput(t *testing.T) {
	c, err := NewChunker(100, 10)
	require.NoError(t, err)

	assert.Empty(t, c.Split("", nil))
	assert.Empty(t, c.Split("   \n\t  ", nil))
}

func TestSplitCountsRunes(t *testing.T) {
	c, err := NewChunker(4, 1)
	require.NoError(t, err)

	chunks := c.Split("مرحبا بالعالم", nil)
	require.NotEmpty(t, chunks)
	assert.Equal(t, []rune("مرحب"), []rune(chunks[0].Content))
	assert.Equal(t, 4, chunks[0].ChunkSize)
}

func TestOverlapClamp(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)

	c, err := NewChunker(1000, 1000, WithLogger(logger.NewWithCore(core)))
	require.NoError(t, err)

	assert.True(t, c.Clamped())
	assert.Equal(t, 200, c.Overlap())
	require.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())

	chunks := c.Split(sampleText(2500), nil)
	assert.Len(t, chunks, 4)

	small, err := NewChunker(3, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, small.Overlap())

	single, err := NewChunker(1, 1)
	require.NoError(t, err)
	assert.True(t, single.Clamped())
	assert.Equal(t, 0, single.Overlap())

	parts := single.Split("abc", nil)
	require.Len(t, parts, 3)
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, parts[i].Content)
		assert.Equal(t, 3, parts[i].TotalChunks)
	}
}

func TestNewChunkerValidation(t *testing.T) {
	_, err := NewChunker(0, 0)
	assert.ErrorIs(t, err, apperror.ErrValidationFailed)

	_, err = NewChunker(10, -1)
	assert.ErrorIs(t, err, apperror.ErrValidationFailed)
}

func TestSplitLines(t *testing.T) {
	text := "l1\nl2\nl3\nl4\nl5\n"
	chunks := SplitLines(text, 2)

	require.Len(t, chunks, 3)
	assert.Equal(t, "l1\nl2\n", chunks[0].Content)
	assert.Equal(t, 1, chunks[0].StartLine)
	assert.Equal(t, 2, chunks[0].EndLine)
	assert.Equal(t, "l5\n", chunks[2].Content)
	assert.Equal(t, 5, chunks[2].StartLine)
	assert.Equal(t, 1, chunks[2].LineCount)
	assert.Equal(t, 2, chunks[2].ChunkID)

	assert.Nil(t, SplitLines("", 2))
}

func TestSplitByLinesSkipsBlankGroups(t *testing.T) {
	text := "alpha\nbeta\n\n\ngamma\n"
	chunks := SplitByLines(text, 2, map[string]any{"filename": "a.txt"})

	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].ChunkID)
	assert.Equal(t, 1, chunks[1].ChunkID)
	assert.Equal(t, 2, chunks[1].TotalChunks)
	assert.Equal(t, "gamma\n", chunks[1].Content)
	assert.Equal(t, 5, chunks[1].Metadata["start_line"])
	assert.Equal(t, "a.txt", chunks[1].Metadata["filename"])
	assert.Equal(t, 6, chunks[1].ChunkSize)
}
