package assignment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence/memory"
	"github.com/workwheel/workwheel/util"
)

func TestRoundRobinStrategy(t *testing.T) {
	storage := memory.NewStorage()
	resolver := groups.NewStaticResolver()
	resolver.AddUser("u1", "support")
	resolver.AddUser("u2", "support")

	strategy := NewRoundRobinStrategy(resolver, storage)
	actx := &model.AssignmentContext{
		InstanceId:   "inst-1",
		ActivityId:   "a1",
		ActivityName: "Review",
		Groups:       []string{"support"},
	}

	var picked []string
	for i := 0; i < 4; i++ {
		result, err := strategy.Select(context.Background(), actx)
		require.NoError(t, err)
		require.True(t, result.Success)
		picked = append(picked, result.AssigneeId)
		require.Equal(t, util.GroupHash(actx.Groups), result.Metadata["groupHash"])
	}
	require.Equal(t, []string{"u1", "u2", "u1", "u2"}, picked)
}

func TestRoundRobinStrategyNoCandidates(t *testing.T) {
	storage := memory.NewStorage()
	resolver := groups.NewStaticResolver()
	strategy := NewRoundRobinStrategy(resolver, storage)

	result, err := strategy.Select(context.Background(), &model.AssignmentContext{ActivityName: "Review"})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "no candidate groups for round robin assignment", result.ErrorMessage)

	result, err = strategy.Select(context.Background(), &model.AssignmentContext{
		ActivityName: "Review",
		Groups:       []string{"support"},
	})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Equal(t, "no eligible users in candidate groups", result.ErrorMessage)
}
