package assignment

import (
	"context"
	"fmt"

	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

var _ Strategy = new(supervisorStrategy)

// supervisorStrategy escalates to the supervisor of whoever last completed an
// activity in the instance, falling back to the user who started it.
type supervisorStrategy struct {
	resolver    groups.UserGroupResolver
	flowStorage persistence.FlowStorage
}

func NewSupervisorStrategy(resolver groups.UserGroupResolver, flowStorage persistence.FlowStorage) *supervisorStrategy {
	return &supervisorStrategy{
		resolver:    resolver,
		flowStorage: flowStorage,
	}
}

func (s *supervisorStrategy) Name() string {
	return STRATEGY_SUPERVISOR
}

func (s *supervisorStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	reference, err := s.referenceUser(ctx, actx)
	if err != nil {
		return nil, err
	}
	if reference == "" {
		return model.NewSelectionFailure("no reference user to derive a supervisor from"), nil
	}
	supervisor, err := s.resolver.GetSupervisor(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("error resolving supervisor of %s: %w", reference, err)
	}
	if supervisor == "" {
		return model.NewSelectionFailure(fmt.Sprintf("no supervisor configured for user %s", reference)), nil
	}
	result := model.NewSelectionSuccess(supervisor)
	result.Metadata["referenceUser"] = reference
	return result, nil
}

// referenceUser is the most recent human completer in the instance, or the
// starter when no human task has completed yet.
func (s *supervisorStrategy) referenceUser(ctx context.Context, actx *model.AssignmentContext) (string, error) {
	executions, err := s.flowStorage.GetExecutions(ctx, actx.InstanceId)
	if err != nil {
		return "", fmt.Errorf("error loading execution history: %w", err)
	}
	reference := ""
	for _, execution := range executions {
		if execution.Status == model.EXECUTION_COMPLETED && execution.CompletedBy != "" && execution.CompletedBy != "system" {
			reference = execution.CompletedBy
		}
	}
	if reference != "" {
		return reference, nil
	}
	instance, err := s.flowStorage.GetInstance(ctx, actx.InstanceId)
	if err != nil {
		return "", fmt.Errorf("error loading instance: %w", err)
	}
	return instance.StartedBy, nil
}
