package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/workwheel/workwheel/model"
)

var ErrNotFound = errors.New("not found")

// ErrConcurrencyConflict is returned when two writers race on the same
// instance; the loser must re-read and retry at its own discretion.
var ErrConcurrencyConflict = errors.New("concurrent modification")

type StorageLayerError struct {
	Message string
}

func (e StorageLayerError) Error() string {
	return fmt.Sprintf("storage layer error %s", e.Message)
}

type MetadataStorage interface {
	SaveWorkflowDefinition(ctx context.Context, wf model.WorkflowDefinition) (int, error)
	GetWorkflowDefinition(ctx context.Context, name string) (*model.WorkflowDefinition, error)
	GetWorkflowDefinitionVersion(ctx context.Context, name string, version int) (*model.WorkflowDefinition, error)
	ListWorkflowDefinitions(ctx context.Context) ([]*model.WorkflowDefinition, error)
}

// FlowStorage owns instances and their execution records. Instance writes
// after creation go through UpdateInstance, which holds a per-instance
// pessimistic lock for the duration of fn and persists the mutated instance
// together with every execution staged on the transaction, or nothing.
type FlowStorage interface {
	CreateInstance(ctx context.Context, instance *model.WorkflowInstance, executions []*model.ActivityExecution) error
	GetInstance(ctx context.Context, instanceId string) (*model.WorkflowInstance, error)
	UpdateInstance(ctx context.Context, instanceId string, fn func(tx InstanceTx) error) error
	GetExecutions(ctx context.Context, instanceId string) ([]*model.ActivityExecution, error)
	GetOpenExecutionsByAssignee(ctx context.Context, userId string) ([]*model.ActivityExecution, error)
	CountOpenAssignments(ctx context.Context, userId string) (int, error)
}

// InstanceTx is the unit of work handed to UpdateInstance callbacks. The
// instance it exposes is locked against concurrent UpdateInstance calls until
// the callback returns.
type InstanceTx interface {
	Instance() *model.WorkflowInstance
	Executions() ([]*model.ActivityExecution, error)
	StageExecution(execution *model.ActivityExecution)
}

// RoundRobinStorage scopes every operation to one (activity, group-hash) key
// and runs fn under a storage-level lock on that key. SyncEligibleUsers and
// SelectNext are only reachable through the transaction handle, which makes
// the ambient-transaction requirement part of the signature.
type RoundRobinStorage interface {
	InTransaction(ctx context.Context, activityName string, groupHash string, fn func(tx RoundRobinTx) error) error
}

type RoundRobinTx interface {
	// SyncEligibleUsers reconciles the active entry set with users:
	// entries not in users are deactivated, known users are reactivated
	// keeping their historical count, new users start at count 0.
	SyncEligibleUsers(ctx context.Context, users []string) error
	// SelectNext picks the active entry with the lowest count (user id as
	// tie-break), increments it, and resets the round once no zero-count
	// active entry remains. Returns nil when no entry is active.
	SelectNext(ctx context.Context) (*model.RoundRobinEntry, error)
	Entries(ctx context.Context) ([]*model.RoundRobinEntry, error)
}
