package activity

import (
	"context"
	"fmt"

	"github.com/workwheel/workwheel/assignment"
	"github.com/workwheel/workwheel/model"
)

var _ Activity = new(taskActivity)

// taskActivity is a human step. Executing it selects an assignee through the
// cascading engine and parks the instance until a resume call completes the
// task. Chain exhaustion is an execution failure, which fails the instance
// rather than leaving it silently stalled.
type taskActivity struct {
	baseActivity
	assignEngine *assignment.Engine
}

func NewTaskActivity(def *model.ActivityDef, assignEngine *assignment.Engine) *taskActivity {
	return &taskActivity{
		baseActivity: newBaseActivity(KIND_TASK, def),
		assignEngine: assignEngine,
	}
}

func (a *taskActivity) Execute(ctx context.Context, req ExecutionRequest) (*Result, error) {
	actx := &model.AssignmentContext{
		InstanceId:   req.Instance.Id,
		ActivityId:   a.def.Id,
		ActivityName: a.def.Name,
		Override:     req.Override,
	}
	if a.def.Assignment != nil {
		actx.Strategies = a.def.Assignment.Strategies
		actx.Groups = a.def.Assignment.Groups
		actx.Properties = a.def.Assignment.Properties
	}
	result := a.assignEngine.Assign(ctx, actx)
	if !result.Success {
		return nil, fmt.Errorf("assignment failed for activity %s: %s", a.def.Id, result.ErrorMessage)
	}
	return &Result{Wait: true, Assignment: result}, nil
}
