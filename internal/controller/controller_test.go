package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/pkg/serverutils"
	"rag-pipeline-be/internal/repository/memory"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/internal/service"
	"rag-pipeline-be/pkg/database"
	"rag-pipeline-be/pkg/embedding/mock"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/rag/prompt"
	"rag-pipeline-be/pkg/vectordb"
	vmemory "rag-pipeline-be/pkg/vectordb/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

type stubLLM struct{}

func (stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "Goroutines are cheap.", nil
}

func (stubLLM) Generate(ctx context.Context, text string, options ...llm.Option) (string, error) {
	return "Goroutines are cheap.", nil
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func newTestApp(t *testing.T) *fiber.App {
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
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	projects := service.NewProjectService(uow, allocator, log, time.Second)
	chunks := service.NewChunkService(uow, allocator, log, time.Second)
	vectors := service.NewVectorIndexService(vmemory.New(vectordb.DistanceCosine), embedder, chunks, cache, nil, log, service.VectorIndexOptions{})
	nlp := service.NewNLPService(vectors, embedder, stubLLM{}, prompt.NewRAGBuilder(registry), cache, log, service.NLPOptions{Locale: "en"})
	ingest := service.NewIngestService(projects, chunks, vectors, nil, log, service.IngestOptions{
		UploadDir:        t.TempDir(),
		MaxFileSize:      1 << 20,
		AllowedFileTypes: []string{"text/plain"},
	})
	publisher := service.NewPublisherService(pubSub, "INDEX_PROJECT")

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	api := app.Group("/api")
	NewBaseController("rag-pipeline", "test").RegisterRoutes(api)
	NewProjectController(projects).RegisterRoutes(api)
	NewDataController(ingest, chunks).RegisterRoutes(api)
	NewNLPController(nlp, vectors, publisher).RegisterRoutes(api)
	return app
}

func call(t *testing.T, app *fiber.App, method, path string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return do(t, app, req)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, envelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestWelcome(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodGet, "/api/v1/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"app_name":"rag-pipeline","app_version":"test"}`, string(env.Data))
}

func TestProjectRoutes(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodPost, "/api/v1/projects", map[string]string{"project_id": "alpha"})
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, string(env.Data), `"project_index":0`)

	status, _ = call(t, app, http.MethodPost, "/api/v1/projects", map[string]string{"project_id": "alpha"})
	assert.Equal(t, http.StatusConflict, status)

	status, env = call(t, app, http.MethodPost, "/api/v1/projects", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	status, env = call(t, app, http.MethodPost, "/api/v1/projects/get-or-create", map[string]string{"project_id": "beta"})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"project_index":1`)

	status, env = call(t, app, http.MethodGet, "/api/v1/projects?page=1&page_size=1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"total":2`)

	status, _ = call(t, app, http.MethodGet, "/api/v1/projects/ghost", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestIngestSearchAnswerFlow(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodPost, "/api/v1/data/ingest/alpha", map[string]any{
		"filename":     "go.md",
		"text":         "Goroutines are lightweight threads. Channels pass values between goroutines.",
		"chunk_size":   30,
		"overlap_size": 5,
	})
	require.Equal(t, http.StatusOK, status, env.Message)

	status, env = call(t, app, http.MethodGet, "/api/v1/data/chunks/alpha", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"filename":"go.md"`)

	status, env = call(t, app, http.MethodPost, "/api/v1/nlp/index/push/alpha", map[string]bool{"do_reset": true})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"collection":"collection_alpha"`)

	status, env = call(t, app, http.MethodGet, "/api/v1/nlp/index/info/alpha", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"exists":true`)

	status, env = call(t, app, http.MethodPost, "/api/v1/nlp/index/search/alpha", map[string]any{"text": "channels", "limit": 1})
	require.Equal(t, http.StatusOK, status)
	var search struct {
		Results []map[string]any `json:"results"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &search))
	assert.Len(t, search.Results, 1)

	status, env = call(t, app, http.MethodPost, "/api/v1/nlp/index/answer/alpha", map[string]any{"text": "what are goroutines?"})
	require.Equal(t, http.StatusOK, status)
	var answer map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, "answer_found", answer["signal"])
	assert.Equal(t, "Goroutines are cheap.", answer["answer"])
	assert.NotEmpty(t, answer["full_prompt"])

	status, _ = call(t, app, http.MethodDelete, "/api/v1/nlp/index/alpha", nil)
	require.Equal(t, http.StatusOK, status)

	status, env = call(t, app, http.MethodPost, "/api/v1/nlp/index/answer/alpha", map[string]any{"text": "what are goroutines?"})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &answer))
	assert.Equal(t, "no_answer", answer["signal"])

	status, env = call(t, app, http.MethodDelete, "/api/v1/data/chunks/alpha", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(env.Data), `"deleted_chunks"`)
}

func TestAsyncIndexPushIsAccepted(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodPost, "/api/v1/nlp/index/push/alpha", map[string]bool{"async": true})
	assert.Equal(t, http.StatusAccepted, status)
	assert.JSONEq(t, `{"project_id":"alpha","do_reset":false}`, string(env.Data))
}

func TestSearchValidation(t *testing.T) {
	app := newTestApp(t)

	status, env := call(t, app, http.MethodPost, "/api/v1/nlp/index/search/alpha", map[string]any{"limit": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "text")
}

func TestUploadAndProcess(t *testing.T) {
	app := newTestApp(t)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="notes.txt"`)
	header.Set("Content-Type", "text/plain")
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write([]byte("The select statement waits on channel operations."))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/data/upload/alpha", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	status, env := do(t, app, req)
	require.Equal(t, http.StatusOK, status, env.Message)

	var upload struct {
		FileId string `json:"file_id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &upload))
	require.True(t, strings.HasPrefix(upload.FileId, "alpha_"))

	status, env = call(t, app, http.MethodPost, "/api/v1/data/process/alpha", map[string]any{"file_id": upload.FileId})
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Contains(t, string(env.Data), `"file_index":0`)

	status, _ = call(t, app, http.MethodPost, "/api/v1/data/process/alpha", map[string]any{"file_id": "missing.txt"})
	assert.Equal(t, http.StatusNotFound, status)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/data/upload/alpha", nil)
	status, _ = do(t, app, req)
	assert.Equal(t, http.StatusBadRequest, status)
}
