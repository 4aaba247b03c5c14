package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/workwheel/workwheel/activity"
	"github.com/workwheel/workwheel/event"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/metadata"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"github.com/workwheel/workwheel/util"
	"go.uber.org/zap"
)

// ActivityMismatchError rejects a resume call that names an activity other
// than the instance's current one. A retried call against an already
// advanced instance lands here instead of producing a duplicate transition.
type ActivityMismatchError struct {
	InstanceId string
	Requested  string
	Current    string
}

func (e ActivityMismatchError) Error() string {
	return fmt.Sprintf("instance %s is at activity %s, not %s", e.InstanceId, e.Current, e.Requested)
}

// WorkflowEngine advances instances through their definition graph. All
// writes for one step, instance state plus its execution records, are
// persisted as a unit under the per-instance lock the storage provides.
type WorkflowEngine struct {
	metadataService metadata.MetadataService
	flowStorage     persistence.FlowStorage
	registry        *activity.Registry
	publisher       event.Publisher
}

func NewWorkflowEngine(metadataService metadata.MetadataService, flowStorage persistence.FlowStorage,
	registry *activity.Registry, publisher event.Publisher) *WorkflowEngine {
	return &WorkflowEngine{
		metadataService: metadataService,
		flowStorage:     flowStorage,
		registry:        registry,
		publisher:       publisher,
	}
}

// maxAdvanceSteps bounds one advance run. Validation cannot rule out cycles
// built from automatic activities, so a runaway definition fails its instance
// instead of spinning the engine.
const maxAdvanceSteps = 100

type advanceOutcome struct {
	nextActivityId string
	nextAssignee   string
	assignment     *model.SelectionResult
}

func (e *WorkflowEngine) StartWorkflow(ctx context.Context, req model.StartWorkflowRequest) (*model.StartWorkflowResponse, error) {
	wf, err := e.metadataService.GetWorkflowDefinition(ctx, req.DefinitionName)
	if err != nil {
		return nil, fmt.Errorf("workflow %s not found", req.DefinitionName)
	}
	if !wf.Active {
		return nil, fmt.Errorf("workflow %s is not active", req.DefinitionName)
	}
	instance := model.NewWorkflowInstance(uuid.New().String(), wf, req.Name, req.StartedBy, req.CorrelationId, req.Input)
	var staged []*model.ActivityExecution
	outcome, err := e.advance(ctx, wf, instance, wf.StartActivity, req.Overrides, func(execution *model.ActivityExecution) {
		staged = append(staged, execution)
	})
	if err != nil {
		return nil, err
	}
	if err := e.flowStorage.CreateInstance(ctx, instance, staged); err != nil {
		return nil, err
	}
	logger.Info("workflow started",
		zap.String("workflow", wf.Name),
		zap.String("instance", instance.Id),
		zap.String("startedBy", req.StartedBy))
	e.publisher.Publish(ctx, event.EVENT_WORKFLOW_STARTED, map[string]any{
		"instanceId": instance.Id,
		"workflow":   wf.Name,
		"startedBy":  req.StartedBy,
	})
	e.publishOutcome(ctx, instance, outcome)
	return &model.StartWorkflowResponse{
		InstanceId:     instance.Id,
		Status:         instance.Status,
		NextActivityId: outcome.nextActivityId,
		NextAssignee:   outcome.nextAssignee,
	}, nil
}

func (e *WorkflowEngine) ResumeWorkflow(ctx context.Context, req model.ResumeWorkflowRequest) (*model.ResumeWorkflowResponse, error) {
	var response *model.ResumeWorkflowResponse
	var outcome *advanceOutcome
	var instanceSnapshot *model.WorkflowInstance
	err := e.flowStorage.UpdateInstance(ctx, req.InstanceId, func(tx persistence.InstanceTx) error {
		instance := tx.Instance()
		if instance.Status.IsTerminal() {
			return model.InvalidTransitionError{From: instance.Status, To: model.INSTANCE_RUNNING}
		}
		if instance.Status == model.INSTANCE_SUSPENDED {
			return fmt.Errorf("instance %s is suspended", instance.Id)
		}
		if instance.CurrentActivity != req.ActivityId {
			return ActivityMismatchError{InstanceId: instance.Id, Requested: req.ActivityId, Current: instance.CurrentActivity}
		}
		wf, err := e.metadataService.GetWorkflowDefinitionVersion(ctx, instance.DefinitionName, instance.DefinitionVersion)
		if err != nil {
			return fmt.Errorf("definition %s version %d not found", instance.DefinitionName, instance.DefinitionVersion)
		}
		actDef, ok := wf.GetActivity(req.ActivityId)
		if !ok {
			return fmt.Errorf("activity %s not found in definition %s", req.ActivityId, wf.Name)
		}
		if err := e.completeCurrentExecution(tx, req); err != nil {
			return err
		}
		instance.UpdateVariables(req.Output)
		result, err := e.advance(ctx, wf, instance, actDef.Next, req.Overrides, tx.StageExecution)
		if err != nil {
			return err
		}
		outcome = result
		instanceSnapshot = instance
		response = &model.ResumeWorkflowResponse{
			Status:         instance.Status,
			NextActivityId: result.nextActivityId,
			NextAssignee:   result.nextAssignee,
			Completed:      instance.Status == model.INSTANCE_COMPLETED,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("activity completed",
		zap.String("instance", req.InstanceId),
		zap.String("activity", req.ActivityId),
		zap.String("completedBy", req.CompletedBy))
	e.publisher.Publish(ctx, event.EVENT_ACTIVITY_COMPLETED, map[string]any{
		"instanceId":  req.InstanceId,
		"activityId":  req.ActivityId,
		"completedBy": req.CompletedBy,
	})
	e.publishOutcome(ctx, instanceSnapshot, outcome)
	return response, nil
}

// completeCurrentExecution closes the open execution record of the activity
// being resumed with the caller's output.
func (e *WorkflowEngine) completeCurrentExecution(tx persistence.InstanceTx, req model.ResumeWorkflowRequest) error {
	executions, err := tx.Executions()
	if err != nil {
		return err
	}
	var open *model.ActivityExecution
	for _, execution := range executions {
		if execution.ActivityId == req.ActivityId && execution.Status.IsOpen() {
			open = execution
		}
	}
	if open == nil {
		return fmt.Errorf("no open execution for activity %s on instance %s", req.ActivityId, req.InstanceId)
	}
	open.MarkCompleted(req.CompletedBy, req.Output, req.Comments)
	tx.StageExecution(open)
	return nil
}

// advance runs activities from fromActivityId until the flow parks on a
// human task, reaches an end activity, or fails. An activity failure marks
// the instance Failed and is reported through instance state, not as an
// error; the orchestrator keeps running.
func (e *WorkflowEngine) advance(ctx context.Context, wf *model.WorkflowDefinition, instance *model.WorkflowInstance,
	fromActivityId string, overrides map[string]*model.AssignmentOverride,
	stage func(*model.ActivityExecution)) (*advanceOutcome, error) {
	currentId := fromActivityId
	for steps := 0; ; steps++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if steps >= maxAdvanceSteps {
			return e.failInstance(instance, stage, nil,
				fmt.Sprintf("exceeded %d activity transitions without reaching a task or end, definition %s likely cycles", maxAdvanceSteps, wf.Name))
		}
		actDef, ok := wf.GetActivity(currentId)
		if !ok {
			return e.failInstance(instance, stage, nil, fmt.Sprintf("activity %s not found in definition %s", currentId, wf.Name))
		}
		act, err := e.registry.Build(actDef)
		if err != nil {
			return e.failInstance(instance, stage, nil, err.Error())
		}
		input := util.ResolveParams(instance.Variables, actDef.Parameters)
		execution := newExecution(instance, actDef, input)
		result, err := act.Execute(ctx, activity.ExecutionRequest{
			Instance: instance,
			Input:    input,
			Override: overrides[actDef.Id],
		})
		if err != nil {
			return e.failInstance(instance, stage, execution, err.Error())
		}
		if result.Wait {
			execution.AssignedTo = result.Assignment.AssigneeId
			execution.AssignedGroup = result.Assignment.Group
			stage(execution)
			if err := instance.SetCurrentActivity(actDef.Id, result.Assignment.AssigneeId); err != nil {
				return nil, err
			}
			return &advanceOutcome{
				nextActivityId: actDef.Id,
				nextAssignee:   result.Assignment.AssigneeId,
				assignment:     result.Assignment,
			}, nil
		}
		if result.Output != nil {
			instance.UpdateVariables(result.Output)
		}
		execution.MarkCompleted("system", result.Output, "")
		stage(execution)
		if result.End {
			if err := instance.SetCurrentActivity(actDef.Id, ""); err != nil {
				return nil, err
			}
			if err := instance.UpdateStatus(model.INSTANCE_COMPLETED, ""); err != nil {
				return nil, err
			}
			logger.Info("workflow completed", zap.String("workflow", wf.Name), zap.String("instance", instance.Id))
			return &advanceOutcome{}, nil
		}
		next, err := route(actDef, result.Event)
		if err != nil {
			return e.failInstance(instance, stage, nil, err.Error())
		}
		currentId = next
	}
}

func (e *WorkflowEngine) failInstance(instance *model.WorkflowInstance, stage func(*model.ActivityExecution),
	execution *model.ActivityExecution, reason string) (*advanceOutcome, error) {
	if execution != nil {
		execution.MarkFailed(reason)
		stage(execution)
	}
	instance.IncrementRetryCount()
	if err := instance.UpdateStatus(model.INSTANCE_FAILED, reason); err != nil {
		return nil, err
	}
	logger.Error("workflow failed",
		zap.String("workflow", instance.DefinitionName),
		zap.String("instance", instance.Id),
		zap.String("reason", reason))
	return &advanceOutcome{}, nil
}

// route resolves the next activity id. Decisions match the produced event
// against their condition map with a declared default as fallback; everything
// else follows its unconditional next pointer.
func route(actDef *model.ActivityDef, routingEvent string) (string, error) {
	kind, err := activity.ToKind(actDef.Kind)
	if err != nil {
		return "", err
	}
	if kind == activity.KIND_DECISION {
		if next, ok := actDef.Conditions[routingEvent]; ok {
			return next, nil
		}
		if actDef.DefaultNext != "" {
			return actDef.DefaultNext, nil
		}
		return "", fmt.Errorf("decision %s has no route for event %q and no default", actDef.Id, routingEvent)
	}
	if actDef.Next == "" {
		return "", fmt.Errorf("activity %s has no next activity", actDef.Id)
	}
	return actDef.Next, nil
}

func newExecution(instance *model.WorkflowInstance, actDef *model.ActivityDef, input map[string]any) *model.ActivityExecution {
	return &model.ActivityExecution{
		Id:             uuid.New().String(),
		InstanceId:     instance.Id,
		ActivityId:     actDef.Id,
		ActivityName:   actDef.Name,
		ActivityKind:   actDef.Kind,
		Status:         model.EXECUTION_PENDING,
		StartedAt:      time.Now(),
		InputVariables: input,
	}
}

func (e *WorkflowEngine) publishOutcome(ctx context.Context, instance *model.WorkflowInstance, outcome *advanceOutcome) {
	if instance == nil || outcome == nil {
		return
	}
	if outcome.assignment != nil {
		e.publisher.Publish(ctx, event.EVENT_ACTIVITY_ASSIGNED, map[string]any{
			"instanceId": instance.Id,
			"activityId": outcome.nextActivityId,
			"assignee":   outcome.nextAssignee,
			"metadata":   outcome.assignment.Metadata,
		})
	}
	switch instance.Status {
	case model.INSTANCE_COMPLETED:
		e.publisher.Publish(ctx, event.EVENT_WORKFLOW_COMPLETED, map[string]any{
			"instanceId": instance.Id,
			"workflow":   instance.DefinitionName,
		})
	case model.INSTANCE_FAILED:
		e.publisher.Publish(ctx, event.EVENT_WORKFLOW_FAILED, map[string]any{
			"instanceId": instance.Id,
			"workflow":   instance.DefinitionName,
			"error":      instance.ErrorMessage,
		})
	}
}
