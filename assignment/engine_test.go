package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence/memory"
)

type stubStrategy struct {
	name     string
	assignee string
	reason   string
	err      error
	panics   bool
	calls    int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Select(ctx context.Context, actx *model.AssignmentContext) (*model.SelectionResult, error) {
	s.calls++
	if s.panics {
		panic("nil candidate list")
	}
	if s.err != nil {
		return nil, s.err
	}
	if s.assignee != "" {
		return model.NewSelectionSuccess(s.assignee), nil
	}
	return model.NewSelectionFailure(s.reason), nil
}

func TestAssignmentEngine(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test cascade stops at first success":  testCascadeFirstSuccess,
		"test cascade exhaustion":              testCascadeExhaustion,
		"test empty chain":                     testEmptyChain,
		"test unknown strategy name continues": testUnknownStrategyName,
		"test strategy panic is contained":     testStrategyPanic,
		"test override assignee wins":          testOverrideAssignee,
		"test override strategies replace":     testOverrideStrategies,
		"test route back detection":            testRouteBackDetection,
	} {
		t.Run(scenario, fn)
	}
}

func testCascadeFirstSuccess(t *testing.T) {
	first := &stubStrategy{name: "Manual", reason: "no assignee or group configured for manual assignment"}
	second := &stubStrategy{name: "RoundRobin", assignee: "u2"}
	third := &stubStrategy{name: "Random", assignee: "u9"}
	engine := NewEngine(memory.NewStorage(), first, second, third)

	result := engine.Assign(context.Background(), &model.AssignmentContext{
		InstanceId: "inst-1",
		ActivityId: "a1",
		Strategies: []string{"Manual", "RoundRobin", "Random"},
	})
	require.True(t, result.Success)
	require.Equal(t, "u2", result.AssigneeId)
	require.Equal(t, "RoundRobin", result.Metadata["winningStrategy"])
	require.Equal(t, 2, result.Metadata["winningPosition"])
	require.Equal(t, []string{"Manual", "RoundRobin"}, result.Metadata["attemptedStrategies"])
	require.Equal(t, 0, third.calls)
}

func testCascadeExhaustion(t *testing.T) {
	first := &stubStrategy{name: "Manual", reason: "no assignee or group configured for manual assignment"}
	second := &stubStrategy{name: "Workload", err: errors.New("directory unavailable")}
	engine := NewEngine(memory.NewStorage(), first, second)

	result := engine.Assign(context.Background(), &model.AssignmentContext{
		Strategies: []string{"Manual", "Workload"},
	})
	require.False(t, result.Success)
	require.Contains(t, result.ErrorMessage, "all assignment strategies failed")
	require.Contains(t, result.ErrorMessage, "Manual: no assignee or group configured")
	require.Contains(t, result.ErrorMessage, "Workload: directory unavailable")
	attempts := result.Metadata["attempts"].([]model.StrategyAttempt)
	require.Len(t, attempts, 2)
}

func testEmptyChain(t *testing.T) {
	engine := NewEngine(memory.NewStorage())
	result := engine.Assign(context.Background(), &model.AssignmentContext{})
	require.False(t, result.Success)
	require.Equal(t, "no strategies provided", result.ErrorMessage)
}

func testUnknownStrategyName(t *testing.T) {
	fallback := &stubStrategy{name: "Random", assignee: "u3"}
	engine := NewEngine(memory.NewStorage(), fallback)

	result := engine.Assign(context.Background(), &model.AssignmentContext{
		Strategies: []string{"Psychic", "Random"},
	})
	require.True(t, result.Success)
	require.Equal(t, "u3", result.AssigneeId)
	require.Equal(t, []string{"Psychic", "Random"}, result.Metadata["attemptedStrategies"])
}

func testStrategyPanic(t *testing.T) {
	broken := &stubStrategy{name: "Supervisor", panics: true}
	fallback := &stubStrategy{name: "Random", assignee: "u4"}
	engine := NewEngine(memory.NewStorage(), broken, fallback)

	result := engine.Assign(context.Background(), &model.AssignmentContext{
		Strategies: []string{"Supervisor", "Random"},
	})
	require.True(t, result.Success)
	require.Equal(t, "u4", result.AssigneeId)
}

func testOverrideAssignee(t *testing.T) {
	configured := &stubStrategy{name: "RoundRobin", assignee: "u2"}
	engine := NewEngine(memory.NewStorage(), configured)

	result := engine.Assign(context.Background(), &model.AssignmentContext{
		Strategies: []string{"RoundRobin"},
		Override:   &model.AssignmentOverride{Assignee: "boss"},
	})
	require.True(t, result.Success)
	require.Equal(t, "boss", result.AssigneeId)
	require.Equal(t, OVERRIDE_STRATEGY, result.Metadata["winningStrategy"])
	require.Equal(t, 0, configured.calls)
}

func testOverrideStrategies(t *testing.T) {
	configured := &stubStrategy{name: "RoundRobin", assignee: "u2"}
	preferred := &stubStrategy{name: "Random", assignee: "u7"}
	engine := NewEngine(memory.NewStorage(), configured, preferred)

	result := engine.Assign(context.Background(), &model.AssignmentContext{
		Strategies: []string{"RoundRobin"},
		Override:   &model.AssignmentOverride{Strategies: []string{"Random"}},
	})
	require.True(t, result.Success)
	require.Equal(t, "u7", result.AssigneeId)
	require.Equal(t, 0, configured.calls)
}

func testRouteBackDetection(t *testing.T) {
	storage := memory.NewStorage()
	instance := &model.WorkflowInstance{Id: "inst-1", Status: model.INSTANCE_RUNNING, StartedAt: time.Now()}
	completed := &model.ActivityExecution{
		Id: "e1", InstanceId: "inst-1", ActivityId: "review",
		Status: model.EXECUTION_COMPLETED, StartedAt: time.Now(),
	}
	open := &model.ActivityExecution{
		Id: "e2", InstanceId: "inst-1", ActivityId: "approve",
		Status: model.EXECUTION_PENDING, StartedAt: time.Now(),
	}
	require.NoError(t, storage.CreateInstance(context.Background(), instance,
		[]*model.ActivityExecution{completed, open}))

	engine := NewEngine(storage)
	require.True(t, engine.IsRouteBackScenario(context.Background(), "inst-1", "review"))
	require.False(t, engine.IsRouteBackScenario(context.Background(), "inst-1", "approve"))
	require.False(t, engine.IsRouteBackScenario(context.Background(), "inst-2", "review"))
}
