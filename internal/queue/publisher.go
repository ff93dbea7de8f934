package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mysns/internal/logger"
)

// Publisher adds events to a stream and returns the Redis message id.
type Publisher interface {
	Publish(ctx context.Context, stream string, event MediaEvent) (messageID string, err error)
}

type RedisPublisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event MediaEvent) (string, error) {
	start := time.Now()
	log := logger.Ctx(ctx).With().Str(logger.FieldComponent, "publisher").Str("stream", stream).Str("type", event.Type).Logger()

	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("serialize event: %w", err)
	}

	messageID, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Result()
	if err != nil {
		log.Error().Err(err).Msg("publish failed")
		return "", fmt.Errorf("xadd to stream: %w", err)
	}

	log.Debug().
		Str("msg_id", messageID).
		Str("object_key", event.ObjectKey).
		Dur("duration", time.Since(start)).
		Msg("event published")
	return messageID, nil
}
