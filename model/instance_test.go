package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newRunningInstance() *WorkflowInstance {
	def := &WorkflowDefinition{Name: "order-approval", Version: 1}
	return NewWorkflowInstance("inst-1", def, "order 42", "u1", "corr-42", map[string]any{"amount": 100})
}

func TestInstanceTransitions(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, instance *WorkflowInstance){
		"test running to completed":       testRunningToCompleted,
		"test running to failed":          testRunningToFailed,
		"test suspend and reactivate":     testSuspendReactivate,
		"test terminal rejects update":    testTerminalRejectsUpdate,
		"test suspended rejects complete": testSuspendedRejectsComplete,
		"test variables merge":            testVariablesMerge,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, newRunningInstance())
		})
	}
}

func testRunningToCompleted(t *testing.T, instance *WorkflowInstance) {
	err := instance.UpdateStatus(INSTANCE_COMPLETED, "")
	require.NoError(t, err)
	require.Equal(t, INSTANCE_COMPLETED, instance.Status)
	require.NotNil(t, instance.CompletedAt)
}

func testRunningToFailed(t *testing.T, instance *WorkflowInstance) {
	err := instance.UpdateStatus(INSTANCE_FAILED, "boom")
	require.NoError(t, err)
	require.Equal(t, "boom", instance.ErrorMessage)
	require.NotNil(t, instance.CompletedAt)
}

func testSuspendReactivate(t *testing.T, instance *WorkflowInstance) {
	require.NoError(t, instance.UpdateStatus(INSTANCE_SUSPENDED, ""))
	require.Nil(t, instance.CompletedAt)
	require.NoError(t, instance.UpdateStatus(INSTANCE_RUNNING, ""))
	require.NoError(t, instance.UpdateStatus(INSTANCE_CANCELLED, ""))
}

func testTerminalRejectsUpdate(t *testing.T, instance *WorkflowInstance) {
	require.NoError(t, instance.UpdateStatus(INSTANCE_CANCELLED, ""))
	err := instance.UpdateStatus(INSTANCE_RUNNING, "")
	require.Error(t, err)
	transitionErr, ok := err.(InvalidTransitionError)
	require.True(t, ok)
	require.Equal(t, INSTANCE_CANCELLED, transitionErr.From)

	err = instance.SetCurrentActivity("a1", "u2")
	require.Error(t, err)
}

func testSuspendedRejectsComplete(t *testing.T, instance *WorkflowInstance) {
	require.NoError(t, instance.UpdateStatus(INSTANCE_SUSPENDED, ""))
	err := instance.UpdateStatus(INSTANCE_COMPLETED, "")
	require.Error(t, err)
}

func testVariablesMerge(t *testing.T, instance *WorkflowInstance) {
	instance.UpdateVariables(map[string]any{"amount": 200, "approved": true})
	require.Equal(t, 200, instance.Variables["amount"])
	require.Equal(t, true, instance.Variables["approved"])
}
