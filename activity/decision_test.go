package activity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/model"
)

func TestDecisionActivity(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"test string event":          testDecisionString,
		"test bool event":            testDecisionBool,
		"test integral number event": testDecisionIntegralNumber,
		"test fractional event":      testDecisionFractionalNumber,
		"test missing path":          testDecisionMissingPath,
	} {
		t.Run(scenario, fn)
	}
}

func decide(t *testing.T, expression string, variables map[string]any) (*Result, error) {
	t.Helper()
	act := NewDecisionActivity(&model.ActivityDef{Id: "route", Kind: "DECISION", Expression: expression})
	return act.Execute(context.Background(), ExecutionRequest{
		Instance: &model.WorkflowInstance{Id: "inst-1", Variables: variables},
	})
}

func testDecisionString(t *testing.T) {
	result, err := decide(t, "$.tier", map[string]any{"tier": "gold"})
	require.NoError(t, err)
	require.Equal(t, "gold", result.Event)
}

func testDecisionBool(t *testing.T) {
	result, err := decide(t, "$.approved", map[string]any{"approved": true})
	require.NoError(t, err)
	require.Equal(t, "true", result.Event)
}

func testDecisionIntegralNumber(t *testing.T) {
	result, err := decide(t, "$.level", map[string]any{"level": float64(2)})
	require.NoError(t, err)
	require.Equal(t, "2", result.Event)
}

func testDecisionFractionalNumber(t *testing.T) {
	// fractional values must keep their decimals so a "2.5" condition can match
	result, err := decide(t, "$.rating", map[string]any{"rating": 2.5})
	require.NoError(t, err)
	require.Equal(t, "2.5", result.Event)
}

func testDecisionMissingPath(t *testing.T) {
	_, err := decide(t, "$.nope", map[string]any{"tier": "gold"})
	require.Error(t, err)
}
