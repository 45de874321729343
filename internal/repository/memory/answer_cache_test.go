package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerCache(t *testing.T) {
	ctx := context.Background()
	c := NewAnswerCache(0)

	_, found, err := c.Get(ctx, "p1", "k")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "p1", "k", []byte("v1")))
	require.NoError(t, c.Set(ctx, "p10", "k", []byte("v10")))

	v, found, err := c.Get(ctx, "p1", "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), v)

	require.NoError(t, c.InvalidateProject(ctx, "p1"))

	_, found, _ = c.Get(ctx, "p1", "k")
	assert.False(t, found)

	v, found, _ = c.Get(ctx, "p10", "k")
	assert.True(t, found)
	assert.Equal(t, []byte("v10"), v)
}
