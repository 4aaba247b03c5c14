package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

func (s *Storage) rrKey(activityName string, groupHash string) string {
	return activityName + ":" + groupHash
}

func (s *Storage) InTransaction(ctx context.Context, activityName string, groupHash string, fn func(tx persistence.RoundRobinTx) error) error {
	key := s.rrKey(activityName, groupHash)
	s.mu.Lock()
	lock, ok := s.rrLocks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.rrLocks[key] = lock
	}
	s.mu.Unlock()
	lock.Lock()
	defer lock.Unlock()
	tx := &roundRobinTx{storage: s, key: key, activityName: activityName, groupHash: groupHash}
	return fn(tx)
}

type roundRobinTx struct {
	storage      *Storage
	key          string
	activityName string
	groupHash    string
}

var _ persistence.RoundRobinTx = new(roundRobinTx)

func (tx *roundRobinTx) SyncEligibleUsers(ctx context.Context, users []string) error {
	eligible := make(map[string]bool, len(users))
	for _, u := range users {
		eligible[u] = true
	}
	entries := tx.storage.rrEntries[tx.key]
	known := make(map[string]bool, len(entries))
	for _, entry := range entries {
		known[entry.UserId] = true
		entry.Active = eligible[entry.UserId]
	}
	for _, u := range users {
		if !known[u] {
			entries = append(entries, &model.RoundRobinEntry{
				ActivityName: tx.activityName,
				GroupHash:    tx.groupHash,
				UserId:       u,
				Active:       true,
			})
		}
	}
	tx.storage.rrEntries[tx.key] = entries
	return nil
}

func (tx *roundRobinTx) SelectNext(ctx context.Context) (*model.RoundRobinEntry, error) {
	var active []*model.RoundRobinEntry
	for _, entry := range tx.storage.rrEntries[tx.key] {
		if entry.Active {
			active = append(active, entry)
		}
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
		for _, entry := range active {
			entry.AssignmentCount = 0
		}
	}
	sort.Slice(active, func(i, j int) bool {
		if active[i].AssignmentCount != active[j].AssignmentCount {
			return active[i].AssignmentCount < active[j].AssignmentCount
		}
		return active[i].UserId < active[j].UserId
	})
	selected := active[0]
	now := time.Now()
	selected.AssignmentCount++
	selected.LastAssignedAt = &now
	result := *selected
	return &result, nil
}

func (tx *roundRobinTx) Entries(ctx context.Context) ([]*model.RoundRobinEntry, error) {
	entries := tx.storage.rrEntries[tx.key]
	result := make([]*model.RoundRobinEntry, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		result = append(result, &copied)
	}
	return result, nil
}
