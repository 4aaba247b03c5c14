package assignment

import (
	"context"
	"fmt"

	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

var _ Strategy = new(previousOwnerStrategy)

// previousOwnerStrategy sends a routed-back activity to whoever handled it
// the first time around. On a first execution there is no previous owner and
// the strategy fails, letting the chain fall through to a fresh selection.
type previousOwnerStrategy struct {
	flowStorage persistence.FlowStorage
}

func NewPreviousOwnerStrategy(flowStorage persistence.FlowStorage) *previousOwnerStrategy {
	return &previousOwnerStrategy{flowStorage: flowStorage}
}

func (s *previousOwnerStrategy) Name() string {
	return STRATEGY_PREVIOUS_OWNER
}

func (s *previousOwnerStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	executions, err := s.flowStorage.GetExecutions(ctx, actx.InstanceId)
	if err != nil {
		return nil, fmt.Errorf("error loading execution history: %w", err)
	}
	owner := ""
	for _, execution := range executions {
		if execution.ActivityId != actx.ActivityId || execution.Status != model.EXECUTION_COMPLETED {
			continue
		}
		if execution.CompletedBy != "" && execution.CompletedBy != "system" {
			owner = execution.CompletedBy
		} else if execution.AssignedTo != "" {
			owner = execution.AssignedTo
		}
	}
	if owner == "" {
		return model.NewSelectionFailure(fmt.Sprintf("no previous owner for activity %s", actx.ActivityId)), nil
	}
	result := model.NewSelectionSuccess(owner)
	result.Metadata["routeBack"] = true
	return result, nil
}
