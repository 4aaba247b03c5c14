package assignment

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/model"
)

var _ Strategy = new(randomStrategy)

type randomStrategy struct {
	resolver groups.UserGroupResolver
}

func NewRandomStrategy(resolver groups.UserGroupResolver) *randomStrategy {
	return &randomStrategy{resolver: resolver}
}

func (s *randomStrategy) Name() string {
	return STRATEGY_RANDOM
}

func (s *randomStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	if len(actx.Groups) == 0 {
		return model.NewSelectionFailure("no candidate groups for random assignment"), nil
	}
	users, err := s.resolver.GetUsersInGroups(ctx, actx.Groups)
	if err != nil {
		return nil, fmt.Errorf("error resolving eligible users: %w", err)
	}
	if len(users) == 0 {
		return model.NewSelectionFailure("no eligible users in candidate groups"), nil
	}
	return model.NewSelectionSuccess(users[rand.Intn(len(users))]), nil
}
