package assignment

import (
	"context"
	"fmt"

	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
	"github.com/workwheel/workwheel/util"
)

var _ Strategy = new(roundRobinStrategy)

// roundRobinStrategy hands tasks out evenly across the eligible users of the
// activity's group set. The eligible-set sync and the pick-and-increment both
// run inside one storage transaction on the (activity, group-hash) key, so
// concurrent selections for the same key serialize instead of double-counting.
type roundRobinStrategy struct {
	resolver  groups.UserGroupResolver
	rrStorage persistence.RoundRobinStorage
}

func NewRoundRobinStrategy(resolver groups.UserGroupResolver, rrStorage persistence.RoundRobinStorage) *roundRobinStrategy {
	return &roundRobinStrategy{
		resolver:  resolver,
		rrStorage: rrStorage,
	}
}

func (s *roundRobinStrategy) Name() string {
	return STRATEGY_ROUND_ROBIN
}

func (s *roundRobinStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	if len(actx.Groups) == 0 {
		return model.NewSelectionFailure("no candidate groups for round robin assignment"), nil
	}
	users, err := s.resolver.GetUsersInGroups(ctx, actx.Groups)
	if err != nil {
		return nil, fmt.Errorf("error resolving eligible users: %w", err)
	}
	if len(users) == 0 {
		return model.NewSelectionFailure("no eligible users in candidate groups"), nil
	}
	groupHash := util.GroupHash(actx.Groups)
	var selected *model.RoundRobinEntry
	err = s.rrStorage.InTransaction(ctx, actx.ActivityName, groupHash, func(tx persistence.RoundRobinTx) error {
		if err := tx.SyncEligibleUsers(ctx, users); err != nil {
			return err
		}
		entry, err := tx.SelectNext(ctx)
		if err != nil {
			return err
		}
		selected = entry
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("round robin selection failed: %w", err)
	}
	if selected == nil {
		return model.NewSelectionFailure("no active round robin entries for key"), nil
	}
	result := model.NewSelectionSuccess(selected.UserId)
	result.Metadata["groupHash"] = groupHash
	result.Metadata["assignmentCount"] = selected.AssignmentCount
	return result, nil
}
