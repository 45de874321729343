package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := NewWithCore(core)

	l.Warn("chunker", "overlap clamped", map[string]interface{}{"overlap": 200})
	l.Error("nlp", "generation failed", map[string]interface{}{"error": "boom"})
	l.Info("nlp", "no details", nil)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, "overlap clamped", entries[0].Message)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "chunker", entries[0].ContextMap()["module"])

	_, hasRef := entries[1].ContextMap()["error_ref"]
	assert.True(t, hasRef)

	assert.NotNil(t, entries[2].ContextMap()["details"])
}
