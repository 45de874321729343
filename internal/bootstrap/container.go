package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"rag-pipeline-be/internal/config"
	"rag-pipeline-be/internal/controller"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/cache"
	"rag-pipeline-be/internal/repository/contract"
	"rag-pipeline-be/internal/repository/memory"
	"rag-pipeline-be/internal/repository/unitofwork"
	"rag-pipeline-be/internal/service"
	"rag-pipeline-be/pkg/database"
	"rag-pipeline-be/pkg/embedding"
	embeddingFactory "rag-pipeline-be/pkg/embedding/factory"
	"rag-pipeline-be/pkg/events"
	llmFactory "rag-pipeline-be/pkg/llm/factory"
	pktNats "rag-pipeline-be/pkg/nats"
	"rag-pipeline-be/pkg/rag/prompt"
	"rag-pipeline-be/pkg/vectordb"
	vectorFactory "rag-pipeline-be/pkg/vectordb/factory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Controllers
	BaseController    controller.IBaseController
	ProjectController controller.IProjectController
	DataController    controller.IDataController
	NLPController     controller.INLPController

	// Services, shared by the REST server and the CLI
	ProjectService     service.IProjectService
	ChunkService       service.IChunkService
	VectorIndexService service.IVectorIndexService
	NLPService         service.INLPService
	IngestService      service.IIngestService
	PublisherService   service.IPublisherService

	// Background workers (started by main)
	ConsumerService service.IConsumerService
	IndexListener   *service.IndexListenerService

	db          *gorm.DB
	vectorIndex vectordb.VectorIndex
	rdb         *redis.Client
	natsConn    *nats.Conn
	natsSub     *pktNats.Subscriber
	pubSub      *gochannel.GoChannel
}

type Option func(*Container)

// WithLogger replaces the default file+console logger.
func WithLogger(log logger.ILogger) Option {
	return func(c *Container) { c.Logger = log }
}

// NewContainer wires every component from cfg. On failure the parts built so far are closed.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (_ *Container, err error) {
	c := &Container{Config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	}
	sysLogger := c.Logger
	defer func() {
		if err != nil {
			_ = c.Close()
		}
	}()

	// 1. Persistence
	c.db, err = database.NewGormDBFromDSN(cfg.Database.Connection, database.Options{})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if database.IsSQLiteDSN(cfg.Database.Connection) {
		if err = database.AutoMigrate(c.db); err != nil {
			return nil, fmt.Errorf("migrate sqlite database: %w", err)
		}
	}
	uowFactory := unitofwork.NewRepositoryFactory(c.db)

	c.vectorIndex, err = vectorFactory.NewVectorIndex(vectorFactory.Config{
		Backend:      cfg.VectorDB.Backend,
		Distance:     cfg.VectorDB.Distance,
		QdrantURL:    cfg.VectorDB.QdrantURL,
		QdrantAPIKey: cfg.VectorDB.QdrantAPIKey,
		Timeout:      cfg.Timeouts.Vector,
	}, c.db)
	if err != nil {
		return nil, fmt.Errorf("init vector index: %w", err)
	}

	// 2. Model providers
	embedder, err := embeddingFactory.NewEmbeddingProvider(cfg.Ai.EmbeddingBackend, cfg.EmbeddingConfig())
	if err != nil {
		return nil, fmt.Errorf("init embedding provider: %w", err)
	}
	cachedEmbedder := embedding.NewCachedProvider(embedder, cfg.Cache.QueryTTL)
	sysLogger.Info("bootstrap", "Embedding provider ready", map[string]interface{}{
		"backend": cfg.Ai.EmbeddingBackend,
		"model":   cfg.Ai.EmbeddingModel,
	})

	generator, err := llmFactory.NewLLMProvider(cfg.Ai.GenerationBackend, cfg.GenerationConfig())
	if err != nil {
		return nil, fmt.Errorf("init generation provider: %w", err)
	}
	sysLogger.Info("bootstrap", "Generation provider ready", map[string]interface{}{
		"backend": cfg.Ai.GenerationBackend,
		"model":   cfg.Ai.GenerationModel,
	})

	registry, err := prompt.NewRegistry(cfg.Template.DefaultLocale)
	if err != nil {
		return nil, fmt.Errorf("load prompt templates: %w", err)
	}

	// 3. Caches
	answerCache := c.newAnswerCache(ctx, cfg)

	// 4. Event bus
	pipelineEvents := c.connectNats(cfg)
	c.pubSub = gochannel.NewGoChannel(gochannel.Config{}, watermill.NewStdLogger(false, false))

	// 5. Services
	allocator := service.NewSequenceAllocator()
	c.ProjectService = service.NewProjectService(uowFactory, allocator, sysLogger, cfg.Timeouts.Store)
	c.ChunkService = service.NewChunkService(uowFactory, allocator, sysLogger, cfg.Timeouts.Store)
	c.VectorIndexService = service.NewVectorIndexService(
		c.vectorIndex,
		cachedEmbedder,
		c.ChunkService,
		answerCache,
		pipelineEvents,
		sysLogger,
		service.VectorIndexOptions{
			BatchSize:        cfg.VectorDB.BatchSize,
			VectorTimeout:    cfg.Timeouts.Vector,
			EmbeddingTimeout: cfg.Timeouts.Embedding,
		},
	)
	c.NLPService = service.NewNLPService(
		c.VectorIndexService,
		cachedEmbedder,
		generator,
		prompt.NewRAGBuilder(registry),
		answerCache,
		sysLogger,
		service.NLPOptions{
			Locale:            cfg.Template.PrimaryLocale,
			EmbeddingTimeout:  cfg.Timeouts.Embedding,
			GenerationTimeout: cfg.Timeouts.Generation,
		},
	)
	c.IngestService = service.NewIngestService(
		c.ProjectService,
		c.ChunkService,
		c.VectorIndexService,
		pipelineEvents,
		sysLogger,
		service.IngestOptions{
			ChunkSize:        cfg.Chunking.ChunkSize,
			ChunkOverlap:     cfg.Chunking.ChunkOverlap,
			UploadDir:        cfg.App.UploadDir,
			MaxFileSize:      cfg.MaxFileSizeBytes(),
			AllowedFileTypes: cfg.App.AllowedFileTypes,
		},
	)
	c.PublisherService = service.NewPublisherService(c.pubSub, cfg.App.IndexProjectTopic)
	c.ConsumerService = service.NewConsumerService(c.pubSub, cfg.App.IndexProjectTopic, c.VectorIndexService, sysLogger)
	if c.natsSub != nil {
		c.IndexListener = service.NewIndexListenerService(c.natsSub, c.PublisherService, sysLogger)
	}

	// 6. Controllers
	c.BaseController = controller.NewBaseController(cfg.App.Name, cfg.App.Version)
	c.ProjectController = controller.NewProjectController(c.ProjectService)
	c.DataController = controller.NewDataController(c.IngestService, c.ChunkService)
	c.NLPController = controller.NewNLPController(c.NLPService, c.VectorIndexService, c.PublisherService)

	return c, nil
}

// newAnswerCache prefers redis and falls back to the in-process cache.
func (c *Container) newAnswerCache(ctx context.Context, cfg *config.Config) contract.AnswerCache {
	if cfg.App.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.App.RedisURL)
		if err == nil {
			c.rdb = rdb
			return cache.NewRedisAnswerCache(rdb, cfg.Cache.AnswerTTL)
		}
		c.Logger.Warn("bootstrap", "Failed to connect to Redis, using in-memory answer cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return memory.NewAnswerCache(cfg.Cache.AnswerTTL)
}

// connectNats is optional: without a URL or a reachable server, pipeline events are dropped.
func (c *Container) connectNats(cfg *config.Config) events.Publisher {
	if cfg.App.NatsURL == "" {
		return events.NopPublisher{}
	}

	nc, err := pktNats.Connect(cfg.App.NatsURL)
	if err != nil {
		c.Logger.Warn("bootstrap", "Failed to connect to NATS", map[string]interface{}{"error": err.Error()})
		return events.NopPublisher{}
	}
	c.natsConn = nc

	pub, err := pktNats.NewPublisher(nc, pktNats.DefaultStream, c.Logger)
	if err != nil {
		c.Logger.Warn("bootstrap", "Failed to create NATS publisher", map[string]interface{}{"error": err.Error()})
		return events.NopPublisher{}
	}
	sub, err := pktNats.NewSubscriber(nc, pktNats.DefaultStream, c.Logger)
	if err != nil {
		c.Logger.Warn("bootstrap", "Failed to create NATS subscriber", map[string]interface{}{"error": err.Error()})
	} else {
		c.natsSub = sub
	}
	return pub
}

// Close releases resources in reverse construction order.
func (c *Container) Close() error {
	var errs []error

	if c.natsSub != nil {
		c.natsSub.Stop()
	}
	if c.pubSub != nil {
		errs = append(errs, c.pubSub.Close())
	}
	if c.natsConn != nil {
		c.natsConn.Close()
	}
	if c.rdb != nil {
		errs = append(errs, c.rdb.Close())
	}
	if c.vectorIndex != nil {
		errs = append(errs, c.vectorIndex.Close())
	}
	errs = append(errs, database.Close(c.db))
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	return errors.Join(errs...)
}
