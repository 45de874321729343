package integration

import (
	"context"
	"log"
	"os"
	"testing"

	"rag-pipeline-be/internal/entity"
	"rag-pipeline-be/internal/repository/specification"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/database"
	"rag-pipeline-be/pkg/vectordb"
	"rag-pipeline-be/pkg/vectordb/pgvector"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	// Load .env from root
	if err := godotenv.Load("../../.env"); err != nil {
		log.Println("No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" || database.IsSQLiteDSN(dsn) {
		t.Skip("Skipping integration test: postgres DB_CONNECTION_STRING not set")
	}

	db, err := database.NewGormDBFromDSN(dsn, database.Options{})
	require.NoError(t, err, "Failed to connect to DB")
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, pgvector.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func TestGormConnection(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()

	uowFactory := unitofwork.NewRepositoryFactory(db)
	uow := uowFactory.NewUnitOfWork(ctx)

	sqlDB, _ := db.DB()
	require.NoError(t, sqlDB.Ping())

	t.Run("Check Project Repository", func(t *testing.T) {
		count, err := uow.ProjectRepository().Count(ctx)
		assert.NoError(t, err)
		t.Logf("Project count: %d", count)
	})

	t.Run("Rolled back chunks are not visible", func(t *testing.T) {
		projectId := "it-" + uuid.NewString()

		require.NoError(t, uow.Begin(ctx))
		err := uow.ChunkRepository().CreateBulk(ctx, []*entity.Chunk{{
			ProjectId:   projectId,
			Filename:    "a.txt",
			ChunkId:     1,
			TotalChunks: 1,
			ChunkSize:   5,
			Content:     "hello",
		}})
		require.NoError(t, err)
		require.NoError(t, uow.Rollback())

		count, err := uow.ChunkRepository().Count(ctx, specification.ByProjectID{ProjectID: projectId})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Duplicate chunk position is rejected", func(t *testing.T) {
		projectId := "it-" + uuid.NewString()
		chunk := func() *entity.Chunk {
			return &entity.Chunk{ProjectId: projectId, Filename: "a.txt", ChunkId: 1, TotalChunks: 1, ChunkSize: 1, Content: "x"}
		}
		repo := uowFactory.NewUnitOfWork(ctx).ChunkRepository()
		require.NoError(t, repo.CreateBulk(ctx, []*entity.Chunk{chunk()}))

		err := repo.CreateBulk(ctx, []*entity.Chunk{chunk()})
		assert.ErrorIs(t, apperror.FromStore(err), apperror.ErrDuplicateKey)

		_, err = repo.DeleteByProjectId(ctx, projectId)
		require.NoError(t, err)
	})
}

func TestPgvectorIndex(t *testing.T) {
	db := openPostgres(t)
	ctx := context.Background()

	index := pgvector.New(db, vectordb.DistanceCosine)
	name := "collection_it_" + uuid.NewString()
	t.Cleanup(func() { _ = index.DeleteCollection(ctx, name) })

	require.NoError(t, index.CreateCollection(ctx, name, 3))
	require.NoError(t, index.Upsert(ctx, name, []vectordb.Record{
		{ID: uuid.NewString(), Vector: []float32{1, 0, 0}, Text: "x axis"},
		{ID: uuid.NewString(), Vector: []float32{0, 1, 0}, Text: "y axis"},
	}))

	hits, err := index.Search(ctx, name, []float32{0.9, 0.1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "x axis", hits[0].Text)

	err = index.Upsert(ctx, name, []vectordb.Record{{ID: uuid.NewString(), Vector: []float32{1, 0}}})
	assert.ErrorIs(t, err, apperror.ErrDimensionMismatch)
}
