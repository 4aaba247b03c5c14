package event

import (
	"context"
	"encoding/json"
	"fmt"

	rd "github.com/go-redis/redis/v9"
	"github.com/workwheel/workwheel/logger"
	"go.uber.org/zap"
)

const EVENT_WORKFLOW_STARTED = "workflow.started"
const EVENT_WORKFLOW_COMPLETED = "workflow.completed"
const EVENT_WORKFLOW_FAILED = "workflow.failed"
const EVENT_WORKFLOW_CANCELLED = "workflow.cancelled"
const EVENT_ACTIVITY_COMPLETED = "activity.completed"
const EVENT_ACTIVITY_ASSIGNED = "activity.assigned"

// Publisher is fire-and-forget from the engine's point of view; a failed
// publish is logged and swallowed.
type Publisher interface {
	Publish(ctx context.Context, eventType string, payload map[string]any)
}

type Config struct {
	Addrs     []string
	Namespace string
}

type redisPublisher struct {
	redisClient rd.UniversalClient
	namespace   string
}

var _ Publisher = new(redisPublisher)

func NewRedisPublisher(conf Config) *redisPublisher {
	redisClient := rd.NewUniversalClient(&rd.UniversalOptions{
		Addrs: conf.Addrs,
	})
	return &redisPublisher{
		redisClient: redisClient,
		namespace:   conf.Namespace,
	}
}

func (p *redisPublisher) Publish(ctx context.Context, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Error("error encoding event payload", zap.String("event", eventType), zap.Error(err))
		return
	}
	channel := fmt.Sprintf("%s:events:%s", p.namespace, eventType)
	if err := p.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		logger.Error("error publishing event", zap.String("event", eventType), zap.Error(err))
	}
}

type noopPublisher struct{}

var _ Publisher = new(noopPublisher)

func NewNoopPublisher() *noopPublisher {
	return &noopPublisher{}
}

func (p *noopPublisher) Publish(ctx context.Context, eventType string, payload map[string]any) {
}
