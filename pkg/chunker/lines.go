package chunker

import (
	"strings"
	"unicode/utf8"
)

// LineChunk is a fixed-line-count segment. Lines are 1-based and inclusive.
type LineChunk struct {
	Content   string
	ChunkID   int
	StartLine int
	EndLine   int
	LineCount int
}

// SplitLines groups text into chunks of linesPerChunk lines, keeping line endings.
// The last chunk holds the remainder.
func SplitLines(text string, linesPerChunk int) []LineChunk {
	if text == "" {
		return nil
	}
	if linesPerChunk <= 0 {
		linesPerChunk = 50
	}

	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var chunks []LineChunk
	for start := 0; start < len(lines); start += linesPerChunk {
		end := min(start+linesPerChunk, len(lines))
		chunks = append(chunks, LineChunk{
			Content:   strings.Join(lines[start:end], ""),
			ChunkID:   len(chunks),
			StartLine: start + 1,
			EndLine:   end,
			LineCount: end - start,
		})
	}
	return chunks
}

// SplitByLines is SplitLines shaped as Chunks. The line span of each chunk is
// added to its metadata as start_line, end_line and line_count.
func SplitByLines(text string, linesPerChunk int, metadata map[string]any) []Chunk {
	lineChunks := SplitLines(text, linesPerChunk)
	chunks := make([]Chunk, 0, len(lineChunks))
	for _, lc := range lineChunks {
		if strings.TrimSpace(lc.Content) == "" {
			continue
		}
		meta := copyMetadata(metadata)
		if meta == nil {
			meta = make(map[string]any, 3)
		}
		meta["start_line"] = lc.StartLine
		meta["end_line"] = lc.EndLine
		meta["line_count"] = lc.LineCount
		chunks = append(chunks, Chunk{
			Content:   lc.Content,
			ChunkSize: utf8.RuneCountInString(lc.Content),
			Metadata:  meta,
		})
	}
	for i := range chunks {
		chunks[i].ChunkID = i
		chunks[i].TotalChunks = len(chunks)
	}
	return chunks
}
