package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

type MetadataDao struct {
	store *Store
}

var _ persistence.MetadataStorage = new(MetadataDao)

func NewMetadataDao(store *Store) *MetadataDao {
	return &MetadataDao{store: store}
}

// SaveWorkflowDefinition appends a new immutable version. The advisory lock
// on the workflow name serializes concurrent publishers so version numbers
// stay gapless.
func (d *MetadataDao) SaveWorkflowDefinition(ctx context.Context, wf model.WorkflowDefinition) (int, error) {
	var version int
	err := d.store.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('definition:' || $1))`, wf.Name); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx,
			`SELECT COALESCE(MAX(version), 0) + 1 FROM workflow_definition WHERE name = $1`,
			wf.Name).Scan(&version); err != nil {
			return err
		}
		wf.Version = version
		body, err := json.Marshal(wf)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO workflow_definition (name, version, definition) VALUES ($1, $2, $3)`,
			wf.Name, version, body)
		return err
	})
	if err != nil {
		return 0, persistence.StorageLayerError{Message: err.Error()}
	}
	return version, nil
}

func (d *MetadataDao) GetWorkflowDefinition(ctx context.Context, name string) (*model.WorkflowDefinition, error) {
	row := d.store.pool.QueryRow(ctx,
		`SELECT definition FROM workflow_definition WHERE name = $1 ORDER BY version DESC LIMIT 1`, name)
	return scanDefinition(row)
}

func (d *MetadataDao) GetWorkflowDefinitionVersion(ctx context.Context, name string, version int) (*model.WorkflowDefinition, error) {
	row := d.store.pool.QueryRow(ctx,
		`SELECT definition FROM workflow_definition WHERE name = $1 AND version = $2`, name, version)
	return scanDefinition(row)
}

func (d *MetadataDao) ListWorkflowDefinitions(ctx context.Context) ([]*model.WorkflowDefinition, error) {
	rows, err := d.store.pool.Query(ctx,
		`SELECT DISTINCT ON (name) definition FROM workflow_definition ORDER BY name, version DESC`)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	var defs []*model.WorkflowDefinition
	for rows.Next() {
		wf, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, wf)
	}
	return defs, rows.Err()
}

func scanDefinition(row pgx.Row) (*model.WorkflowDefinition, error) {
	var body []byte
	if err := row.Scan(&body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, persistence.ErrNotFound
		}
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	var wf model.WorkflowDefinition
	if err := json.Unmarshal(body, &wf); err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	return &wf, nil
}
