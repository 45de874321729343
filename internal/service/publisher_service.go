package service

import (
	"context"
	"encoding/json"

	"rag-pipeline-be/internal/dto"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IPublisherService interface {
	Publish(ctx context.Context, payload []byte) error
	// EnqueueIndex queues a reindex job for the consumer.
	EnqueueIndex(ctx context.Context, job dto.IndexProjectMessage) error
}

type publisherService struct {
	pubSub    *gochannel.GoChannel
	topicName string
}

func NewPublisherService(pubSub *gochannel.GoChannel, topicName string) IPublisherService {
	return &publisherService{
		pubSub:    pubSub,
		topicName: topicName,
	}
}

func (p *publisherService) Publish(ctx context.Context, payload []byte) error {
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return p.pubSub.Publish(p.topicName, msg)
}

func (p *publisherService) EnqueueIndex(ctx context.Context, job dto.IndexProjectMessage) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return p.Publish(ctx, payload)
}
