package service

import (
	"context"
	"testing"

	"rag-pipeline-be/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectAssignsSequentialIndexes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	alpha, err := env.projects.Create(ctx, "alpha")
	require.NoError(t, err)
	assert.Equal(t, 0, alpha.ProjectIndex)

	beta, err := env.projects.Create(ctx, "beta")
	require.NoError(t, err)
	assert.Equal(t, 1, beta.ProjectIndex)

	_, err = env.projects.Create(ctx, "alpha")
	assert.ErrorIs(t, err, apperror.ErrDuplicateKey)

	list, err := env.projects.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	require.Len(t, list.Projects, 2)
	assert.Equal(t, "alpha", list.Projects[0].ProjectId)
	assert.Equal(t, "beta", list.Projects[1].ProjectId)
}

func TestGetOrCreateProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.projects.GetOrCreate(ctx, "  docs  ")
	require.NoError(t, err)
	assert.Equal(t, "docs", first.ProjectId)

	second, err := env.projects.GetOrCreate(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.ProjectIndex, second.ProjectIndex)
}

func TestGetProject(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.projects.Get(ctx, "missing")
	assert.ErrorIs(t, err, apperror.ErrProjectNotFound)

	_, err = env.projects.Get(ctx, "   ")
	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "project_id", ve.Field)
}

func TestListProjectsPagination(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, id := range []string{"p0", "p1", "p2", "p3", "p4"} {
		_, err := env.projects.Create(ctx, id)
		require.NoError(t, err)
	}

	page, err := env.projects.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Projects, 2)
	assert.Equal(t, 2, page.Projects[0].ProjectIndex)
	assert.Equal(t, 3, page.Projects[1].ProjectIndex)
}
