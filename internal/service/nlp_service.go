package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/internal/repository/contract"
	"rag-pipeline-be/internal/tracer"
	"rag-pipeline-be/pkg/apperror"
	"rag-pipeline-be/pkg/embedding"
	"rag-pipeline-be/pkg/llm"
	"rag-pipeline-be/pkg/rag/prompt"

	"go.opentelemetry.io/otel/attribute"
)

type INLPService interface {
	Search(ctx context.Context, projectId, text string, limit int) ([]dto.RetrievedDocument, error)
	// Answer returns NO_MATCH when nothing relevant is indexed or the model
	// declines. Errors are reserved for operational faults.
	Answer(ctx context.Context, projectId string, req dto.AnswerRequest) (*dto.AnswerResult, error)
}

type NLPOptions struct {
	Locale            string
	EmbeddingTimeout  time.Duration
	GenerationTimeout time.Duration
}

type nlpService struct {
	vectorIndex IVectorIndexService
	embedder    embedding.EmbeddingProvider
	generator   llm.LLMProvider
	builder     *prompt.RAGBuilder
	answerCache contract.AnswerCache
	logger      logger.ILogger
	opts        NLPOptions
}

func NewNLPService(
	vectorIndex IVectorIndexService,
	embedder embedding.EmbeddingProvider,
	generator llm.LLMProvider,
	builder *prompt.RAGBuilder,
	answerCache contract.AnswerCache,
	log logger.ILogger,
	opts NLPOptions,
) INLPService {
	return &nlpService{
		vectorIndex: vectorIndex,
		embedder:    embedder,
		generator:   generator,
		builder:     builder,
		answerCache: answerCache,
		logger:      log,
		opts:        opts,
	}
}

func (s *nlpService) embedQuery(ctx context.Context, projectId, text string) ([]float32, error) {
	ctx, cancel := withTimeout(ctx, s.opts.EmbeddingTimeout)
	defer cancel()

	res, err := s.embedder.Generate(ctx, text, embedding.TaskTypeQuery)
	if errors.Is(err, embedding.ErrEmptyEmbedding) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.NewPipelineError(apperror.StageEmbedding, projectId, apperror.FromRemote(err))
	}
	if res == nil {
		return nil, nil
	}
	return res.Embedding.Values, nil
}

func (s *nlpService) Search(ctx context.Context, projectId, text string, limit int) (docs []dto.RetrievedDocument, err error) {
	ctx, span := tracer.Start(ctx, "nlp.search",
		attribute.String("project_id", projectId),
		attribute.Int("limit", limit),
	)
	defer func() { tracer.End(span, err) }()

	if strings.TrimSpace(text) == "" {
		return nil, apperror.NewValidationError("text", "must not be empty")
	}

	vector, err := s.embedQuery(ctx, projectId, text)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		s.logger.Warn("nlp", "Query produced an empty embedding", map[string]interface{}{
			"project_id": projectId,
		})
		return []dto.RetrievedDocument{}, nil
	}

	hits, err := s.vectorIndex.Search(ctx, projectId, vector, limit)
	if err != nil {
		return nil, apperror.NewPipelineError(apperror.StageSearch, projectId, err)
	}

	docs = make([]dto.RetrievedDocument, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, dto.RetrievedDocument{Text: h.Text, Score: h.Score, Metadata: h.Metadata})
	}
	span.SetAttributes(attribute.Int("hits", len(docs)))
	return docs, nil
}

func answerCacheKey(locale string, limit int, query string) string {
	sum := sha256.Sum256([]byte(query))
	return fmt.Sprintf("%s:%d:%s", locale, limit, hex.EncodeToString(sum[:]))
}

func (s *nlpService) cachedAnswer(ctx context.Context, projectId, key string) *dto.AnswerResult {
	if s.answerCache == nil {
		return nil
	}
	raw, found, err := s.answerCache.Get(ctx, projectId, key)
	if err != nil {
		s.logger.Warn("nlp", "Answer cache read failed", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if !found {
		return nil
	}
	var res dto.AnswerResult
	if err := json.Unmarshal(raw, &res); err != nil || !res.Answered() {
		return nil
	}
	return &res
}

func (s *nlpService) storeAnswer(ctx context.Context, projectId, key string, res *dto.AnswerResult) {
	if s.answerCache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := s.answerCache.Set(ctx, projectId, key, raw); err != nil {
		s.logger.Warn("nlp", "Answer cache write failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *nlpService) Answer(ctx context.Context, projectId string, req dto.AnswerRequest) (res *dto.AnswerResult, err error) {
	locale := req.Locale
	if locale == "" {
		locale = s.opts.Locale
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ctx, span := tracer.Start(ctx, "nlp.answer",
		attribute.String("project_id", projectId),
		attribute.String("locale", locale),
	)
	defer func() {
		if res != nil {
			span.SetAttributes(attribute.String("state", string(res.State)))
		}
		tracer.End(span, err)
	}()

	key := answerCacheKey(locale, limit, req.Text)
	if cached := s.cachedAnswer(ctx, projectId, key); cached != nil {
		s.logger.Debug("nlp", "Answer served from cache", map[string]interface{}{"project_id": projectId})
		return cached, nil
	}

	docs, err := s.Search(ctx, projectId, req.Text, limit)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		s.logger.Info("nlp", "No matching chunks", map[string]interface{}{"project_id": projectId})
		return dto.NoMatch(), nil
	}

	promptDocs := make([]prompt.Document, len(docs))
	for i, d := range docs {
		promptDocs[i] = prompt.Document{Text: d.Text, Score: d.Score}
	}
	built, err := s.builder.Build(locale, req.Text, promptDocs)
	if err != nil {
		return nil, apperror.NewPipelineError(apperror.StagePrompt, projectId, err)
	}

	history := append(built.History, llm.Message{Role: llm.RoleUser, Content: built.FullPrompt})
	answer, err := s.generate(ctx, history)
	if err != nil {
		return nil, apperror.NewPipelineError(apperror.StageGeneration, projectId, err)
	}
	if strings.TrimSpace(answer) == "" {
		s.logger.Warn("nlp", apperror.ErrGenerationDeclined.Error(), map[string]interface{}{
			"project_id": projectId,
			"documents":  len(docs),
		})
		return dto.NoMatch(), nil
	}

	res = &dto.AnswerResult{
		State:      dto.AnswerStateAnswered,
		Answer:     answer,
		FullPrompt: built.FullPrompt,
		History:    history,
	}
	s.storeAnswer(ctx, projectId, key, res)

	s.logger.Info("nlp", "Answer generated", map[string]interface{}{
		"project_id": projectId,
		"documents":  len(docs),
	})
	return res, nil
}

func (s *nlpService) generate(ctx context.Context, history []llm.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "nlp.generate", attribute.Int("messages", len(history)))
	ctx, cancel := withTimeout(ctx, s.opts.GenerationTimeout)
	defer cancel()

	answer, err := s.generator.Chat(ctx, history)
	err = apperror.FromRemote(err)
	tracer.End(span, err)
	return answer, err
}
