package engine

import (
	"context"

	"github.com/workwheel/workwheel/event"
	"github.com/workwheel/workwheel/logger"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"go.uber.org/zap"
)

func (e *WorkflowEngine) Suspend(ctx context.Context, instanceId string) error {
	err := e.flowStorage.UpdateInstance(ctx, instanceId, func(tx persistence.InstanceTx) error {
		return tx.Instance().UpdateStatus(model.INSTANCE_SUSPENDED, "")
	})
	if err != nil {
		return err
	}
	logger.Info("workflow suspended", zap.String("instance", instanceId))
	return nil
}

// Reactivate moves a suspended instance back to Running. The instance stays
// parked at its current activity; no re-dispatch happens.
func (e *WorkflowEngine) Reactivate(ctx context.Context, instanceId string) error {
	err := e.flowStorage.UpdateInstance(ctx, instanceId, func(tx persistence.InstanceTx) error {
		return tx.Instance().UpdateStatus(model.INSTANCE_RUNNING, "")
	})
	if err != nil {
		return err
	}
	logger.Info("workflow reactivated", zap.String("instance", instanceId))
	return nil
}

func (e *WorkflowEngine) Cancel(ctx context.Context, instanceId string) error {
	err := e.flowStorage.UpdateInstance(ctx, instanceId, func(tx persistence.InstanceTx) error {
		instance := tx.Instance()
		if err := instance.UpdateStatus(model.INSTANCE_CANCELLED, ""); err != nil {
			return err
		}
		executions, err := tx.Executions()
		if err != nil {
			return err
		}
		for _, execution := range executions {
			if execution.Status.IsOpen() {
				execution.MarkCancelled()
				tx.StageExecution(execution)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("workflow cancelled", zap.String("instance", instanceId))
	e.publisher.Publish(ctx, event.EVENT_WORKFLOW_CANCELLED, map[string]any{
		"instanceId": instanceId,
	})
	return nil
}

func (e *WorkflowEngine) GetInstance(ctx context.Context, instanceId string) (*model.WorkflowInstance, error) {
	return e.flowStorage.GetInstance(ctx, instanceId)
}

func (e *WorkflowEngine) GetExecutions(ctx context.Context, instanceId string) ([]*model.ActivityExecution, error) {
	return e.flowStorage.GetExecutions(ctx, instanceId)
}

func (e *WorkflowEngine) GetOpenExecutionsByAssignee(ctx context.Context, userId string) ([]*model.ActivityExecution, error) {
	return e.flowStorage.GetOpenExecutionsByAssignee(ctx, userId)
}
