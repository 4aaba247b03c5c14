package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

type RoundRobinDao struct {
	store *Store
}

var _ persistence.RoundRobinStorage = new(RoundRobinDao)

func NewRoundRobinDao(store *Store) *RoundRobinDao {
	return &RoundRobinDao{store: store}
}

// InTransaction serializes all work on one (activity, group-hash) key with a
// transaction scoped advisory lock, so sync and select behave as a single
// atomic step even across processes.
func (d *RoundRobinDao) InTransaction(ctx context.Context, activityName string, groupHash string, fn func(tx persistence.RoundRobinTx) error) error {
	return d.store.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtext('roundrobin:' || $1 || ':' || $2))`,
			activityName, groupHash); err != nil {
			return persistence.StorageLayerError{Message: err.Error()}
		}
		return fn(&roundRobinTx{tx: tx, activityName: activityName, groupHash: groupHash})
	})
}

type roundRobinTx struct {
	tx           pgx.Tx
	activityName string
	groupHash    string
}

var _ persistence.RoundRobinTx = new(roundRobinTx)

func (t *roundRobinTx) SyncEligibleUsers(ctx context.Context, users []string) error {
	if _, err := t.tx.Exec(ctx, `
		UPDATE round_robin_entry SET active = FALSE
		WHERE activity_name = $1 AND group_hash = $2 AND NOT (user_id = ANY($3))`,
		t.activityName, t.groupHash, users); err != nil {
		return persistence.StorageLayerError{Message: err.Error()}
	}
	for _, userId := range users {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO round_robin_entry (activity_name, group_hash, user_id, assignment_count, active)
			VALUES ($1, $2, $3, 0, TRUE)
			ON CONFLICT (activity_name, group_hash, user_id) DO UPDATE SET active = TRUE`,
			t.activityName, t.groupHash, userId); err != nil {
			return persistence.StorageLayerError{Message: err.Error()}
		}
	}
	return nil
}

func (t *roundRobinTx) SelectNext(ctx context.Context) (*model.RoundRobinEntry, error) {
	active, err := t.activeEntries(ctx)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, nil
	}
	// a finished round (no zero-count entry left) is detected on the next
	// selection and cleared before picking, so the previous winner's
	// increment is never undone by its own selection
	roundComplete := true
	for _, entry := range active {
		if entry.AssignmentCount == 0 {
			roundComplete = false
			break
		}
	}
	if roundComplete {
		if _, err := t.tx.Exec(ctx, `
			UPDATE round_robin_entry SET assignment_count = 0
			WHERE activity_name = $1 AND group_hash = $2 AND active`,
			t.activityName, t.groupHash); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		for _, entry := range active {
			entry.AssignmentCount = 0
		}
	}
	selected := active[0]
	for _, entry := range active[1:] {
		if entry.AssignmentCount < selected.AssignmentCount ||
			(entry.AssignmentCount == selected.AssignmentCount && entry.UserId < selected.UserId) {
			selected = entry
		}
	}
	now := time.Now()
	if _, err := t.tx.Exec(ctx, `
		UPDATE round_robin_entry SET assignment_count = assignment_count + 1, last_assigned_at = $4
		WHERE activity_name = $1 AND group_hash = $2 AND user_id = $3`,
		t.activityName, t.groupHash, selected.UserId, now); err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	selected.AssignmentCount++
	selected.LastAssignedAt = &now
	return selected, nil
}

func (t *roundRobinTx) Entries(ctx context.Context) ([]*model.RoundRobinEntry, error) {
	return t.queryEntries(ctx, `
		SELECT activity_name, group_hash, user_id, assignment_count, last_assigned_at, active
		FROM round_robin_entry WHERE activity_name = $1 AND group_hash = $2 ORDER BY user_id`)
}

func (t *roundRobinTx) activeEntries(ctx context.Context) ([]*model.RoundRobinEntry, error) {
	return t.queryEntries(ctx, `
		SELECT activity_name, group_hash, user_id, assignment_count, last_assigned_at, active
		FROM round_robin_entry WHERE activity_name = $1 AND group_hash = $2 AND active ORDER BY user_id`)
}

func (t *roundRobinTx) queryEntries(ctx context.Context, sql string) ([]*model.RoundRobinEntry, error) {
	rows, err := t.tx.Query(ctx, sql, t.activityName, t.groupHash)
	if err != nil {
		return nil, persistence.StorageLayerError{Message: err.Error()}
	}
	defer rows.Close()
	var entries []*model.RoundRobinEntry
	for rows.Next() {
		var entry model.RoundRobinEntry
		if err := rows.Scan(&entry.ActivityName, &entry.GroupHash, &entry.UserId,
			&entry.AssignmentCount, &entry.LastAssignedAt, &entry.Active); err != nil {
			return nil, persistence.StorageLayerError{Message: err.Error()}
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
