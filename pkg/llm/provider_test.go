package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProcessText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxChars int
		want     string
	}{
		{"no limit", "  hello world  ", 0, "hello world"},
		{"under limit", "hello", 10, "hello"},
		{"cut", "hello world", 6, "hello"},
		{"runes", "héllo wörld", 5, "héllo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProcessText(tt.text, tt.maxChars))
		})
	}
}

func TestApplyOptions(t *testing.T) {
	opts := Apply(Options{Model: "base", MaxTokens: 100, Temperature: 0.1},
		WithModel("override"), WithMaxTokens(42), WithTemperature(0.7))

	assert.Equal(t, "override", opts.Model)
	assert.Equal(t, 42, opts.MaxTokens)
	assert.Equal(t, 0.7, opts.Temperature)
}
