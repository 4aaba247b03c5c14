package assignment

import (
	"context"

	"github.com/workwheel/workwheel/model"
)

var _ Strategy = new(manualStrategy)

// manualStrategy honors an assignee (or group) named directly on the
// activity's assignment properties. Assigning to a group leaves the user id
// empty, which is a valid success.
type manualStrategy struct{}

func NewManualStrategy() *manualStrategy {
	return &manualStrategy{}
}

func (s *manualStrategy) Name() string {
	return STRATEGY_MANUAL
}

func (s *manualStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	if assignee, ok := actx.Properties["assignee"].(string); ok && assignee != "" {
		return model.NewSelectionSuccess(assignee), nil
	}
	if group, ok := actx.Properties["group"].(string); ok && group != "" {
		result := model.NewSelectionSuccess("")
		result.Group = group
		return result, nil
	}
	return model.NewSelectionFailure("no assignee or group configured for manual assignment"), nil
}
