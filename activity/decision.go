package activity

import (
	"context"
	"fmt"
	"strconv"

	"github.com/oliveagle/jsonpath"
	"github.com/workwheel/workwheel/model"
)

var _ Activity = new(decisionActivity)

// decisionActivity evaluates its jsonpath expression against the variable bag
// and emits the value as the routing event. The engine matches the event
// against the condition map, falling back to the declared default route.
type decisionActivity struct {
	baseActivity
	expression string
}

func NewDecisionActivity(def *model.ActivityDef) *decisionActivity {
	return &decisionActivity{
		baseActivity: newBaseActivity(KIND_DECISION, def),
		expression:   def.Expression,
	}
}

func (a *decisionActivity) Execute(ctx context.Context, req ExecutionRequest) (*Result, error) {
	value, err := jsonpath.JsonPathLookup(req.Instance.Variables, a.expression)
	if err != nil {
		return nil, fmt.Errorf("error evaluating decision expression %s: %w", a.expression, err)
	}
	event := ""
	switch v := value.(type) {
	case int, int16, int32, int64:
		event = fmt.Sprintf("%d", v)
	case float32:
		event = strconv.FormatFloat(float64(v), 'f', -1, 32)
	case float64:
		event = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		event = strconv.FormatBool(v)
	case string:
		event = v
	default:
		return nil, fmt.Errorf("decision expression %s produced unsupported type %T", a.expression, value)
	}
	return &Result{Event: event}, nil
}
