package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"rag-pipeline-be/internal/pkg/logger"
	cachemem "rag-pipeline-be/internal/repository/memory"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/pkg/database"
	"rag-pipeline-be/pkg/embedding"
	"rag-pipeline-be/pkg/embedding/mock"
	"rag-pipeline-be/pkg/events"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/rag/prompt"
	"rag-pipeline-be/pkg/vectordb"
	vmemory "rag-pipeline-be/pkg/vectordb/memory"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := database.NewGormDBFromDSN(dsn, database.Options{LogLevel: gormlogger.Silent})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

type fakeLLM struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	history []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.history = history
	return f.answer, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, text string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: text}}, options...)
}

// failingEmbedder fails the n-th document embedding (1-based).
type failingEmbedder struct {
	embedding.EmbeddingProvider
	failAt int
	calls  int
}

func (f *failingEmbedder) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	if taskType == embedding.TaskTypeDocument {
		f.calls++
		if f.calls == f.failAt {
			return nil, fmt.Errorf("embedding backend refused chunk %d", f.calls)
		}
	}
	return f.EmbeddingProvider.Generate(ctx, text, taskType)
}

// recordingEmbedder remembers the task type of every call.
type recordingEmbedder struct {
	embedding.EmbeddingProvider
	mu    sync.Mutex
	tasks []embedding.TaskType
}

func (r *recordingEmbedder) Generate(ctx context.Context, text string, taskType embedding.TaskType) (*embedding.EmbeddingResponse, error) {
	r.mu.Lock()
	r.tasks = append(r.tasks, taskType)
	r.mu.Unlock()
	return r.EmbeddingProvider.Generate(ctx, text, taskType)
}

// flakyIndex fails the n-th Upsert call (1-based).
type flakyIndex struct {
	vectordb.VectorIndex
	failAt int
	calls  int
}

func (f *flakyIndex) Upsert(ctx context.Context, name string, records []vectordb.Record) error {
	f.calls++
	if f.calls == f.failAt {
		return fmt.Errorf("connection reset by peer")
	}
	return f.VectorIndex.Upsert(ctx, name, records)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type envOptions struct {
	embedder  embedding.EmbeddingProvider
	index     vectordb.VectorIndex
	batchSize int
}

type testEnv struct {
	db         *gorm.DB
	uowFactory unitofwork.RepositoryFactory
	allocator  ISequenceAllocator
	projects   IProjectService
	chunks     IChunkService
	vectors    IVectorIndexService
	nlp        INLPService
	ingest     IIngestService
	embedder   embedding.EmbeddingProvider
	index      vectordb.VectorIndex
	llm        *fakeLLM
	cache      *cachemem.AnswerCache
	publisher  *recordingPublisher
	log        logger.ILogger
	logs       *observer.ObservedLogs
}

func newTestEnv(t *testing.T, opts ...func(*envOptions)) *testEnv {
	t.Helper()

	o := &envOptions{
		embedder:  mock.New(128),
		index:     vmemory.New(vectordb.DistanceCosine),
		batchSize: 2,
	}
	for _, opt := range opts {
		opt(o)
	}

	core, logs := observer.New(zap.DebugLevel)
	log := logger.NewWithCore(core)

	registry, err := prompt.NewRegistry(prompt.DefaultLocale)
	require.NoError(t, err)

	env := &testEnv{
		db:        newTestDB(t),
		embedder:  o.embedder,
		index:     o.index,
		llm:       &fakeLLM{answer: "Goroutines are lightweight threads."},
		cache:     cachemem.NewAnswerCache(time.Minute),
		publisher: &recordingPublisher{},
		log:       log,
		logs:      logs,
	}
	env.uowFactory = unitofwork.NewRepositoryFactory(env.db)
	env.allocator = NewSequenceAllocator()
	env.projects = NewProjectService(env.uowFactory, env.allocator, log, time.Second)
	env.chunks = NewChunkService(env.uowFactory, env.allocator, log, time.Second)
	env.vectors = NewVectorIndexService(env.index, env.embedder, env.chunks, env.cache, env.publisher, log, VectorIndexOptions{
		BatchSize:        o.batchSize,
		VectorTimeout:    time.Second,
		EmbeddingTimeout: time.Second,
	})
	env.nlp = NewNLPService(env.vectors, env.embedder, env.llm, prompt.NewRAGBuilder(registry), env.cache, log, NLPOptions{
		Locale:            "en",
		EmbeddingTimeout:  time.Second,
		GenerationTimeout: time.Second,
	})
	env.ingest = NewIngestService(env.projects, env.chunks, env.vectors, env.publisher, log, IngestOptions{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		UploadDir:    t.TempDir(),
		MaxFileSize:  1 << 20,
		AllowedFileTypes: []string{
			"text/plain",
			"text/markdown",
		},
	})
	return env
}

const goCorpus = `Goroutines are lightweight threads managed by the Go runtime.
Channels let goroutines communicate by passing values.
The select statement waits on multiple channel operations.`
