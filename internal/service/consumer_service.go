package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"rag-pipeline-be/internal/dto"
	"rag-pipeline-be/internal/pkg/logger"
	"rag-pipeline-be/pkg/apperror"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	// Consume subscribes to the reindex topic and processes jobs until ctx is done.
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	vectorIndex IVectorIndexService
	logger      logger.ILogger
	// redelivery attempts per message id, touched only by the consume loop
	attempts map[string]int
}

const maxIndexAttempts = 3

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	vectorIndex IVectorIndexService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		vectorIndex: vectorIndex,
		logger:      log,
		attempts:    make(map[string]int),
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// permanent errors are acked: redelivery cannot fix them.
func isPermanent(err error) bool {
	return errors.Is(err, apperror.ErrValidationFailed) ||
		errors.Is(err, apperror.ErrDimensionMismatch) ||
		errors.Is(err, apperror.ErrProjectNotFound)
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var job dto.IndexProjectMessage
	if err := json.Unmarshal(msg.Payload, &job); err != nil || strings.TrimSpace(job.ProjectId) == "" {
		cs.logger.Error("consumer", "Malformed index job, dropping", map[string]interface{}{
			"message_id": msg.UUID,
			"payload":    string(msg.Payload),
		})
		msg.Ack()
		return
	}

	cs.logger.Info("consumer", "Index job received", map[string]interface{}{
		"message_id": msg.UUID,
		"project_id": job.ProjectId,
		"reset":      job.DoReset,
	})

	res, err := cs.vectorIndex.IndexProject(ctx, job.ProjectId, job.DoReset)
	if err != nil {
		details := map[string]interface{}{
			"project_id": job.ProjectId,
			"stage":      apperror.StageOf(err),
			"error":      err.Error(),
		}
		if res != nil {
			details["indexed"] = res.Indexed
		}
		cs.attempts[msg.UUID]++
		details["attempt"] = cs.attempts[msg.UUID]
		if isPermanent(err) || cs.attempts[msg.UUID] >= maxIndexAttempts {
			delete(cs.attempts, msg.UUID)
			cs.logger.Error("consumer", "Index job failed permanently", details)
			msg.Ack()
			return
		}
		cs.logger.Warn("consumer", "Index job failed, will be redelivered", details)
		msg.Nack()
		return
	}

	delete(cs.attempts, msg.UUID)
	cs.logger.Info("consumer", "Index job done", map[string]interface{}{
		"project_id": job.ProjectId,
		"indexed":    res.Indexed,
	})
	msg.Ack()
}
