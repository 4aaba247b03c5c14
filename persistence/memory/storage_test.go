package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

func TestStorageIsolation(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, storage *Storage){
		"test reads are detached copies":   testReadsAreDetachedCopies,
		"test callback error discards all": testCallbackErrorDiscardsAll,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewStorage())
		})
	}
}

func testReadsAreDetachedCopies(t *testing.T, storage *Storage) {
	instance := &model.WorkflowInstance{
		Id:        "inst-1",
		Status:    model.INSTANCE_RUNNING,
		Variables: map[string]any{"amount": 100},
		StartedAt: time.Now(),
	}
	execution := &model.ActivityExecution{
		Id: "e1", InstanceId: "inst-1", ActivityId: "review",
		Status: model.EXECUTION_PENDING, AssignedTo: "u1", StartedAt: time.Now(),
	}
	require.NoError(t, storage.CreateInstance(context.Background(), instance,
		[]*model.ActivityExecution{execution}))

	// mutating what a read returns must not leak into stored state
	read, err := storage.GetInstance(context.Background(), "inst-1")
	require.NoError(t, err)
	read.Status = model.INSTANCE_FAILED
	read.Variables["amount"] = 999

	executions, err := storage.GetExecutions(context.Background(), "inst-1")
	require.NoError(t, err)
	executions[0].Status = model.EXECUTION_CANCELLED

	stored, err := storage.GetInstance(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Equal(t, model.INSTANCE_RUNNING, stored.Status)
	require.Equal(t, float64(100), stored.Variables["amount"])

	storedExecs, err := storage.GetExecutions(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Equal(t, model.EXECUTION_PENDING, storedExecs[0].Status)
}

func testCallbackErrorDiscardsAll(t *testing.T, storage *Storage) {
	instance := &model.WorkflowInstance{
		Id:        "inst-1",
		Status:    model.INSTANCE_RUNNING,
		StartedAt: time.Now(),
	}
	require.NoError(t, storage.CreateInstance(context.Background(), instance, nil))

	err := storage.UpdateInstance(context.Background(), "inst-1", func(tx persistence.InstanceTx) error {
		require.NoError(t, tx.Instance().UpdateStatus(model.INSTANCE_SUSPENDED, ""))
		tx.StageExecution(&model.ActivityExecution{
			Id: "e1", InstanceId: "inst-1", ActivityId: "review",
			Status: model.EXECUTION_PENDING, StartedAt: time.Now(),
		})
		return persistence.ErrConcurrencyConflict
	})
	require.ErrorIs(t, err, persistence.ErrConcurrencyConflict)

	stored, err := storage.GetInstance(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Equal(t, model.INSTANCE_RUNNING, stored.Status)

	executions, err := storage.GetExecutions(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Empty(t, executions)
}
