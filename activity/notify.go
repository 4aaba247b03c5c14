package activity

import (
	"context"

	"github.com/workwheel/workwheel/event"
	"github.com/workwheel/workwheel/model"
)

var _ Activity = new(notifyActivity)

// notifyActivity publishes its resolved parameters on the configured event
// type and moves on; delivery is fire-and-forget.
type notifyActivity struct {
	baseActivity
	publisher event.Publisher
}

func NewNotifyActivity(def *model.ActivityDef, publisher event.Publisher) *notifyActivity {
	return &notifyActivity{
		baseActivity: newBaseActivity(KIND_NOTIFY, def),
		publisher:    publisher,
	}
}

func (a *notifyActivity) Execute(ctx context.Context, req ExecutionRequest) (*Result, error) {
	payload := map[string]any{
		"instanceId": req.Instance.Id,
		"workflow":   req.Instance.DefinitionName,
		"activityId": a.def.Id,
	}
	for k, v := range req.Input {
		payload[k] = v
	}
	a.publisher.Publish(ctx, a.def.EventType, payload)
	return &Result{Event: "default"}, nil
}
