package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"rag-pipeline-be/pkg/embedding"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/vectordb"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	VectorDB VectorDBConfig
	Ai       AIConfig
	Template TemplateConfig
	Chunking ChunkingConfig
	Timeouts TimeoutConfig
	Cache    CacheConfig
}

type AppConfig struct {
	Name               string
	Version            string
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadDir          string
	MaxFileSizeMB      int
	AllowedFileTypes   []string
	IndexProjectTopic  string
	OtelEnabled        bool
	OtelEndpoint       string
}

type DatabaseConfig struct {
	Connection string
}

type VectorDBConfig struct {
	Backend      vectordb.Backend
	Distance     vectordb.Distance
	QdrantURL    string
	QdrantAPIKey string
	BatchSize    int
}

type AIConfig struct {
	EmbeddingBackend  embedding.Backend
	EmbeddingModel    string
	EmbeddingSize     int
	GenerationBackend llm.Backend
	GenerationModel   string

	OpenAIAPIKey       string
	OpenAIBaseURL      string
	CohereAPIKey       string
	OllamaBaseURL      string
	JinaAPIKey         string
	GoogleGeminiAPIKey string

	InputMaxChars   int
	OutputMaxTokens int
	Temperature     float64
}

type TemplateConfig struct {
	PrimaryLocale string
	DefaultLocale string
}

type ChunkingConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type TimeoutConfig struct {
	Store      time.Duration
	Embedding  time.Duration
	Vector     time.Duration
	Generation time.Duration
}

type CacheConfig struct {
	AnswerTTL time.Duration
	QueryTTL  time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.App.MaxFileSizeMB) * 1024 * 1024
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Name:               getEnv("APP_NAME", "rag-pipeline"),
			Version:            getEnv("APP_VERSION", "0.1.0"),
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			UploadDir:          getEnv("UPLOAD_DIR", "assets/files"),
			MaxFileSizeMB:      getEnvAsInt("FILE_MAX_SIZE", 10),
			AllowedFileTypes:   getEnvAsList("FILE_ALLOWED_TYPES", []string{"text/plain", "text/markdown"}),
			IndexProjectTopic:  getEnv("INDEX_PROJECT_TOPIC", "INDEX_PROJECT"),
			OtelEnabled:        getEnvAsBool("OTEL_ENABLED", false),
			OtelEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", "sqlite://rag-pipeline.db"),
		},
		VectorDB: VectorDBConfig{
			Backend:      vectordb.Backend(strings.ToUpper(getEnv("VECTOR_DB_BACKEND", "PGVECTOR"))),
			Distance:     vectordb.Distance(strings.ToUpper(getEnv("VECTOR_DB_DISTANCE_METHOD", "COSINE"))),
			QdrantURL:    getEnv("QDRANT_URL", "http://localhost:6333"),
			QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
			BatchSize:    getEnvAsInt("VECTOR_DB_BATCH_SIZE", 50),
		},
		Ai: AIConfig{
			EmbeddingBackend:  embedding.Backend(strings.ToUpper(getEnv("EMBEDDING_BACKEND", "OLLAMA"))),
			EmbeddingModel:    getEnv("EMBEDDING_MODEL_ID", ""),
			EmbeddingSize:     getEnvAsInt("EMBEDDING_MODEL_SIZE", 0),
			GenerationBackend: llm.Backend(strings.ToUpper(getEnv("GENERATION_BACKEND", "OLLAMA"))),
			GenerationModel:   getEnv("GENERATION_MODEL_ID", ""),

			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_API_URL", ""),
			CohereAPIKey:       getEnv("COHERE_API_KEY", ""),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			JinaAPIKey:         getEnv("JINA_API_KEY", ""),
			GoogleGeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),

			InputMaxChars:   getEnvAsInt("INPUT_DEFAULT_MAX_CHARACTERS", 1024),
			OutputMaxTokens: getEnvAsInt("GENERATION_DEFAULT_MAX_TOKENS", 200),
			Temperature:     getEnvAsFloat("GENERATION_DEFAULT_TEMPERATURE", 0.1),
		},
		Template: TemplateConfig{
			PrimaryLocale: getEnv("PRIMARY_LANG", "en"),
			DefaultLocale: getEnv("DEFAULT_LANG", "en"),
		},
		Chunking: ChunkingConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
		},
		Timeouts: TimeoutConfig{
			Store:      getEnvAsDuration("STORE_TIMEOUT", 10*time.Second),
			Embedding:  getEnvAsDuration("EMBEDDING_TIMEOUT", 30*time.Second),
			Vector:     getEnvAsDuration("VECTOR_DB_TIMEOUT", 15*time.Second),
			Generation: getEnvAsDuration("GENERATION_TIMEOUT", 120*time.Second),
		},
		Cache: CacheConfig{
			AnswerTTL: getEnvAsDuration("ANSWER_CACHE_TTL", 5*time.Minute),
			QueryTTL:  getEnvAsDuration("QUERY_EMBEDDING_CACHE_TTL", 10*time.Minute),
		},
	}
}

// EmbeddingConfig resolves credentials and endpoint for the selected embedding backend.
func (c *Config) EmbeddingConfig() embedding.Config {
	cfg := embedding.Config{
		Model:         c.Ai.EmbeddingModel,
		Size:          c.Ai.EmbeddingSize,
		InputMaxChars: c.Ai.InputMaxChars,
		Timeout:       c.Timeouts.Embedding,
	}
	switch c.Ai.EmbeddingBackend {
	case embedding.BackendOpenAI:
		cfg.APIKey, cfg.BaseURL = c.Ai.OpenAIAPIKey, c.Ai.OpenAIBaseURL
	case embedding.BackendCohere:
		cfg.APIKey = c.Ai.CohereAPIKey
	case embedding.BackendOllama:
		cfg.BaseURL = c.Ai.OllamaBaseURL
	case embedding.BackendJina:
		cfg.APIKey = c.Ai.JinaAPIKey
	case embedding.BackendGemini:
		cfg.APIKey = c.Ai.GoogleGeminiAPIKey
	}
	return cfg
}

// GenerationConfig resolves credentials and endpoint for the selected generation backend.
func (c *Config) GenerationConfig() llm.Config {
	cfg := llm.Config{
		Model:           c.Ai.GenerationModel,
		InputMaxChars:   c.Ai.InputMaxChars,
		OutputMaxTokens: c.Ai.OutputMaxTokens,
		Temperature:     c.Ai.Temperature,
		Timeout:         c.Timeouts.Generation,
	}
	switch c.Ai.GenerationBackend {
	case llm.BackendOpenAI:
		cfg.APIKey, cfg.BaseURL = c.Ai.OpenAIAPIKey, c.Ai.OpenAIBaseURL
	case llm.BackendCohere:
		cfg.APIKey = c.Ai.CohereAPIKey
	case llm.BackendOllama:
		cfg.BaseURL = c.Ai.OllamaBaseURL
	}
	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("15s") or plain seconds ("15").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
