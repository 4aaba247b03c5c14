package assignment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/groups"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence/memory"
)

func TestStrategies(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test manual assignee":              testManualAssignee,
		"test manual group only":            testManualGroupOnly,
		"test manual unconfigured":          testManualUnconfigured,
		"test workload picks least loaded":  testWorkloadLeastLoaded,
		"test random picks eligible user":   testRandomEligible,
		"test supervisor of last completer": testSupervisorOfCompleter,
		"test supervisor falls back":        testSupervisorFallback,
		"test previous owner on route back": testPreviousOwnerRouteBack,
		"test previous owner first pass":    testPreviousOwnerFirstPass,
	} {
		t.Run(scenario, fn)
	}
}

func testManualAssignee(t *testing.T) {
	strategy := NewManualStrategy()
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{
		Properties: map[string]any{"assignee": "u1"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "u1", result.AssigneeId)
}

func testManualGroupOnly(t *testing.T) {
	strategy := NewManualStrategy()
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{
		Properties: map[string]any{"group": "finance"},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.AssigneeId)
	require.Equal(t, "finance", result.Group)
}

func testManualUnconfigured(t *testing.T) {
	strategy := NewManualStrategy()
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{})
	require.NoError(t, err)
	require.False(t, result.Success)
}

func testWorkloadLeastLoaded(t *testing.T) {
	storage := memory.NewStorage()
	resolver := groups.NewStaticResolver()
	resolver.AddUser("u1", "support")
	resolver.AddUser("u2", "support")

	busy := &model.WorkflowInstance{Id: "inst-1", Status: model.INSTANCE_RUNNING, StartedAt: time.Now()}
	require.NoError(t, storage.CreateInstance(context.Background(), busy, []*model.ActivityExecution{
		{Id: "e1", InstanceId: "inst-1", ActivityId: "a1", AssignedTo: "u1", Status: model.EXECUTION_PENDING, StartedAt: time.Now()},
		{Id: "e2", InstanceId: "inst-1", ActivityId: "a2", AssignedTo: "u1", Status: model.EXECUTION_IN_PROGRESS, StartedAt: time.Now()},
	}))

	strategy := NewWorkloadStrategy(resolver, storage)
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{Groups: []string{"support"}})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "u2", result.AssigneeId)
	require.Equal(t, 0, result.Metadata["openAssignments"])
}

func testRandomEligible(t *testing.T) {
	resolver := groups.NewStaticResolver()
	resolver.AddUser("u1", "support")
	resolver.AddUser("u2", "support")

	strategy := NewRandomStrategy(resolver)
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{Groups: []string{"support"}})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Contains(t, []string{"u1", "u2"}, result.AssigneeId)

	result, err = strategy.Select(context.Background(), &model.AssignmentContext{Groups: []string{"empty"}})
	require.NoError(t, err)
	require.False(t, result.Success)
}

func testSupervisorOfCompleter(t *testing.T) {
	storage := memory.NewStorage()
	resolver := groups.NewStaticResolver()
	resolver.SetSupervisor("u2", "boss")

	instance := &model.WorkflowInstance{Id: "inst-1", Status: model.INSTANCE_RUNNING, StartedBy: "u1", StartedAt: time.Now()}
	require.NoError(t, storage.CreateInstance(context.Background(), instance, []*model.ActivityExecution{
		{Id: "e1", InstanceId: "inst-1", ActivityId: "start", Status: model.EXECUTION_COMPLETED, CompletedBy: "system", StartedAt: time.Now()},
		{Id: "e2", InstanceId: "inst-1", ActivityId: "review", Status: model.EXECUTION_COMPLETED, CompletedBy: "u2", StartedAt: time.Now()},
	}))

	strategy := NewSupervisorStrategy(resolver, storage)
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{InstanceId: "inst-1"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "boss", result.AssigneeId)
	require.Equal(t, "u2", result.Metadata["referenceUser"])
}

func testSupervisorFallback(t *testing.T) {
	storage := memory.NewStorage()
	resolver := groups.NewStaticResolver()
	resolver.SetSupervisor("u1", "lead")

	instance := &model.WorkflowInstance{Id: "inst-1", Status: model.INSTANCE_RUNNING, StartedBy: "u1", StartedAt: time.Now()}
	require.NoError(t, storage.CreateInstance(context.Background(), instance, nil))

	strategy := NewSupervisorStrategy(resolver, storage)
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{InstanceId: "inst-1"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "lead", result.AssigneeId)

	// reference user with no supervisor configured
	resolver.SetSupervisor("u1", "")
	result, err = strategy.Select(context.Background(), &model.AssignmentContext{InstanceId: "inst-1"})
	require.NoError(t, err)
	require.False(t, result.Success)
}

func testPreviousOwnerRouteBack(t *testing.T) {
	storage := memory.NewStorage()
	instance := &model.WorkflowInstance{Id: "inst-1", Status: model.INSTANCE_RUNNING, StartedAt: time.Now()}
	require.NoError(t, storage.CreateInstance(context.Background(), instance, []*model.ActivityExecution{
		{Id: "e1", InstanceId: "inst-1", ActivityId: "review", AssignedTo: "u3",
			Status: model.EXECUTION_COMPLETED, CompletedBy: "u3", StartedAt: time.Now()},
	}))

	strategy := NewPreviousOwnerStrategy(storage)
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{InstanceId: "inst-1", ActivityId: "review"})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "u3", result.AssigneeId)
	require.Equal(t, true, result.Metadata["routeBack"])
}

func testPreviousOwnerFirstPass(t *testing.T) {
	storage := memory.NewStorage()
	instance := &model.WorkflowInstance{Id: "inst-1", Status: model.INSTANCE_RUNNING, StartedAt: time.Now()}
	require.NoError(t, storage.CreateInstance(context.Background(), instance, nil))

	strategy := NewPreviousOwnerStrategy(storage)
	result, err := strategy.Select(context.Background(), &model.AssignmentContext{InstanceId: "inst-1", ActivityId: "review"})
	require.NoError(t, err)
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage, "no previous owner for activity review")
}
