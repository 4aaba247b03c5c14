package assignment

import (
	"context"
	"fmt"

	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

var _ Strategy = new(workloadStrategy)

// workloadStrategy picks the eligible user with the fewest open (pending or
// in-progress) task executions, breaking ties by user id.
type workloadStrategy struct {
	resolver    groups.UserGroupResolver
	flowStorage persistence.FlowStorage
}

func NewWorkloadStrategy(resolver groups.UserGroupResolver, flowStorage persistence.FlowStorage) *workloadStrategy {
	return &workloadStrategy{
		resolver:    resolver,
		flowStorage: flowStorage,
	}
}

func (s *workloadStrategy) Name() string {
	return STRATEGY_WORKLOAD
}

func (s *workloadStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	if len(actx.Groups) == 0 {
		return model.NewSelectionFailure("no candidate groups for workload assignment"), nil
	}
	users, err := s.resolver.GetUsersInGroups(ctx, actx.Groups)
	if err != nil {
		return nil, fmt.Errorf("error resolving eligible users: %w", err)
	}
	if len(users) == 0 {
		return model.NewSelectionFailure("no eligible users in candidate groups"), nil
	}
	selected := ""
	minOpen := -1
	for _, userId := range users {
		open, err := s.flowStorage.CountOpenAssignments(ctx, userId)
		if err != nil {
			return nil, fmt.Errorf("error counting open assignments for %s: %w", userId, err)
		}
		if minOpen < 0 || open < minOpen || (open == minOpen && userId < selected) {
			selected = userId
			minOpen = open
		}
	}
	result := model.NewSelectionSuccess(selected)
	result.Metadata["openAssignments"] = minOpen
	return result, nil
}
