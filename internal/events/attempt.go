package events

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const DefaultStream = "auth-local:attempts"

// AttemptEvent records the outcome of one login attempt.
type AttemptEvent struct {
	Email     string
	Outcome   string
	Timestamp int64
}

// AttemptProducer appends login attempts to a capped Redis stream for
// consumers that audit sign-ins.
type AttemptProducer struct {
	client     *redis.Client
	streamName string
	maxLen     int64
}

func NewAttemptProducer(client *redis.Client, streamName string, maxLen int64) *AttemptProducer {
	if streamName == "" {
		streamName = DefaultStream
	}
	return &AttemptProducer{
		client:     client,
		streamName: streamName,
		maxLen:     maxLen,
	}
}

func (p *AttemptProducer) Publish(ctx context.Context, event *AttemptEvent) error {
	args := &redis.XAddArgs{
		Stream: p.streamName,
		Values: map[string]interface{}{
			"email":     event.Email,
			"outcome":   event.Outcome,
			"timestamp": strconv.FormatInt(event.Timestamp, 10),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}
	return nil
}
