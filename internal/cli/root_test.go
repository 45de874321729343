package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/memory"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/internal/service"
	"rag-pipeline-be/pkg/database"
	"rag-pipeline-be/pkg/embedding/mock"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/rag/prompt"
	"rag-pipeline-be/pkg/vectordb"
	vmemory "rag-pipeline-be/pkg/vectordb/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

type cannedLLM struct{ answer string }

func (c cannedLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return c.answer, nil
}

func (c cannedLLM) Generate(ctx context.Context, text string, options ...llm.Option) (string, error) {
	return c.answer, nil
}

func newTestServices(t *testing.T) *Services {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewGormDBFromDSN(fmt.Sprintf("file:%s?mode=memory&cache=shared", name), database.Options{LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	registry, err := prompt.NewRegistry(prompt.DefaultLocale)
	require.NoError(t, err)

	log := logger.NewNopLogger()
	uow := unitofwork.NewRepositoryFactory(db)
	allocator := service.NewSequenceAllocator()
	embedder := mock.New(64)
	cache := memory.NewAnswerCache(time.Minute)

	projects := service.NewProjectService(uow, allocator, log, time.Second)
	chunks := service.NewChunkService(uow, allocator, log, time.Second)
	vectors := service.NewVectorIndexService(vmemory.New(vectordb.DistanceCosine), embedder, chunks, cache, nil, log, service.VectorIndexOptions{})
	return &Services{
		Projects: projects,
		Vectors:  vectors,
		Ingest:   service.NewIngestService(projects, chunks, vectors, nil, log, service.IngestOptions{UploadDir: t.TempDir()}),
		NLP: service.NewNLPService(vectors, embedder, cannedLLM{answer: "Channels pass values."}, prompt.NewRAGBuilder(registry), cache, log, service.NLPOptions{
			Locale: "en",
		}),
	}
}

func run(t *testing.T, svc *Services, args ...string) (string, error) {
	t.Helper()
	released := false
	root := NewRootCommand(func(ctx context.Context) (*Services, func() error, error) {
		return svc, func() error { released = true; return nil }, nil
	})
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	if err == nil {
		assert.True(t, released, "services should be released after a successful command")
	}
	return buf.String(), err
}

func writeCorpus(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "go.md")
	require.NoError(t, os.WriteFile(path, []byte("Channels let goroutines communicate by passing values."), 0o644))
	return path
}

func TestProjectCommands(t *testing.T) {
	svc := newTestServices(t)

	out, err := run(t, svc, "project", "create", "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha (index 0)")

	_, err = run(t, svc, "project", "create", "alpha")
	assert.Error(t, err)

	out, err = run(t, svc, "project", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "[0] alpha")

	out, err = run(t, svc, "project", "get", "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "alpha (index 0")
}

func TestCommandsRequireArgs(t *testing.T) {
	_, err := run(t, nil, "search", "alpha")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 2 arg(s)")
}

func TestMissingLoader(t *testing.T) {
	root := NewRootCommand(nil)
	root.SetArgs([]string{"index", "alpha"})
	root.SetOut(new(bytes.Buffer))
	assert.EqualError(t, root.Execute(), "services not configured")
}

func TestIngestIndexAnswer(t *testing.T) {
	svc := newTestServices(t)
	corpus := writeCorpus(t)

	out, err := run(t, svc, "ingest", "alpha", corpus, "--chunk-size", "20", "--overlap", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "as file 0")

	out, err = run(t, svc, "index", "alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "into collection_alpha")

	out, err = run(t, svc, "search", "alpha", "channels", "--json", "-n", "2")
	require.NoError(t, err)
	var docs []dto.RetrievedDocument
	require.NoError(t, json.Unmarshal([]byte(out), &docs))
	assert.Len(t, docs, 2)

	out, err = run(t, svc, "answer", "alpha", "what do channels do?")
	require.NoError(t, err)
	assert.Contains(t, out, "Channels pass values.")
}

func TestAnswerWithoutIndex(t *testing.T) {
	svc := newTestServices(t)

	out, err := run(t, svc, "answer", "ghost", "anything", "--json")
	require.NoError(t, err)
	var res dto.AnswerResponse
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, dto.SignalNoAnswer, res.Signal)
}
