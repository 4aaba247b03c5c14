package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

type FlowDao struct {
	store *Store
}

var _ persistence.FlowStorage = new(FlowDao)

func NewFlowDao(store *Store) *FlowDao {
	return &FlowDao{store: store}
}

func (d *FlowDao) CreateInstance(ctx context.Context, instance *model.WorkflowInstance, executions []*model.ActivityExecution) error {
	err := d.store.inTx(ctx, func(tx pgx.Tx) error {
		body, err := json.Marshal(instance)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO workflow_instance (id, status, data) VALUES ($1, $2, $3)`,
			instance.Id, string(instance.Status), body); err != nil {
			return err
		}
		for _, execution := range executions {
			if err := upsertExecution(ctx, tx, execution); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	return nil
}

func (d *FlowDao) GetInstance(ctx context.Context, instanceId string) (*model.WorkflowInstance, error) {
	row := d.store.pool.QueryRow(ctx, `SELECT data FROM workflow_instance WHERE id = $1`, instanceId)
	return scanInstance(row)
}

// UpdateInstance locks the instance row with SELECT FOR UPDATE for the
// duration of fn, then writes the mutated instance and every staged execution
// in the same transaction.
func (d *FlowDao) UpdateInstance(ctx context.Context, instanceId string, fn func(tx persistence.InstanceTx) error) error {
	return d.store.inTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT data FROM workflow_instance WHERE id = $1 FOR UPDATE`, instanceId)
		instance, err := scanInstance(row)
		if err != nil {
			return err
		}
		itx := &instanceTx{ctx: ctx, tx: tx, instance: instance}
		if err := fn(itx); err != nil {
			return err
		}
		body, err := json.Marshal(instance)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE workflow_instance SET status = $2, data = $3, updated_at = now() WHERE id = $1`,
			instance.Id, string(instance.Status), body); err != nil {
			return persistence.StorageLayerError{Message: err.Error()}
		}
		for _, execution := range itx.staged {
			if err := upsertExecution(ctx, tx, execution); err != nil {
				return persistence.StorageLayerError{Message: err.Error()}
			}
		}
		return nil
	})
}

func (d *FlowDao) GetExecutions(ctx context.Context, instanceId string) ([]*model.ActivityExecution, error) {
	return queryExecutions(ctx, d.store.pool,
		`SELECT data FROM activity_execution WHERE instance_id = $1 ORDER BY started_at`, instanceId)
}

func (d *FlowDao) GetOpenExecutionsByAssignee(ctx context.Context, userId string) ([]*model.ActivityExecution, error) {
	return queryExecutions(ctx, d.store.pool,
		`SELECT data FROM activity_execution WHERE assigned_to = $1 AND status IN ($2, $3) ORDER BY started_at`,
		userId, string(model.EXECUTION_PENDING), string(model.EXECUTION_IN_PROGRESS))
}

func (d *FlowDao) CountOpenAssignments(ctx context.Context, userId string) (int, error) {
	var count int
	err := d.store.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM activity_execution WHERE assigned_to = $1 AND status IN ($2, $3)`,
		userId, string(model.EXECUTION_PENDING), string(model.EXECUTION_IN_PROGRESS)).Scan(&count)
	if err != nil {
		return 0, persistence.StorageLayerError{Message: err.Error()}
	}
	return count, nil
}

// instanceTx stages execution writes until the enclosing transaction commits.
type instanceTx struct {
	ctx      context.Context
	tx       pgx.Tx
	instance *model.WorkflowInstance
	staged   []*model.ActivityExecution
}

var _ persistence.InstanceTx = new(instanceTx)

func (t *instanceTx) Instance() *model.WorkflowInstance {
	return t.instance
}

func (t *instanceTx) Executions() ([]*model.ActivityExecution, error) {
	return queryExecutions(t.ctx, t.tx,
		`SELECT data FROM activity_execution WHERE instance_id = $1 ORDER BY started_at`, t.instance.Id)
}

func (t *instanceTx) StageExecution(execution *model.ActivityExecution) {
	t.staged = append(t.staged, execution)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryExecutions(ctx context.Context, q querier, sql string, args ...any) ([]*model.ActivityExecution, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	var executions []*model.ActivityExecution
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		var execution model.ActivityExecution
		if err := json.Unmarshal(body, &execution); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		executions = append(executions, &execution)
	}
	return executions, rows.Err()
}

func upsertExecution(ctx context.Context, tx pgx.Tx, execution *model.ActivityExecution) error {
	body, err := json.Marshal(execution)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO activity_execution (id, instance_id, activity_id, assigned_to, status, started_at, data)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET assigned_to = $4, status = $5, data = $7`,
		execution.Id, execution.InstanceId, execution.ActivityId, execution.AssignedTo,
		string(execution.Status), execution.StartedAt, body)
	return err
}

func scanInstance(row pgx.Row) (*model.WorkflowInstance, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var instance model.WorkflowInstance
	if err := json.Unmarshal(body, &instance); err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return &instance, nil
}
