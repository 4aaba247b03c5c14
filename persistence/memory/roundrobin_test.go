package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/workwheel/workwheel/model"
	"github.com/workwheel/workwheel/persistence"
)

func TestRoundRobin(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T, storage *Storage){
		"test even distribution":             testEvenDistribution,
		"test reset after full round":        testResetAfterFullRound,
		"test deactivated user skipped":      testDeactivatedUserSkipped,
		"test reactivation keeps count":      testReactivationKeepsCount,
		"test no active entries":             testNoActiveEntries,
		"test keys are isolated":             testKeysIsolated,
	} {
		t.Run(scenario, func(t *testing.T) {
			fn(t, NewStorage())
		})
	}
}

func selectOnce(t *testing.T, storage *Storage, activityName string, groupHash string, users []string) *model.RoundRobinEntry {
	t.Helper()
	var selected *model.RoundRobinEntry
	err := storage.InTransaction(context.Background(), activityName, groupHash, func(tx persistence.RoundRobinTx) error {
		if err := tx.SyncEligibleUsers(context.Background(), users); err != nil {
			return err
		}
		entry, err := tx.SelectNext(context.Background())
		if err != nil {
			return err
		}
		selected = entry
		return nil
	})
	require.NoError(t, err)
	return selected
}

func testEvenDistribution(t *testing.T, storage *Storage) {
	users := []string{"u1", "u2", "u3"}
	tally := make(map[string]int)
	for i := 0; i < 9; i++ {
		entry := selectOnce(t, storage, "review", "h1", users)
		require.NotNil(t, entry)
		tally[entry.UserId]++
	}
	require.Equal(t, map[string]int{"u1": 3, "u2": 3, "u3": 3}, tally)
}

func testResetAfterFullRound(t *testing.T, storage *Storage) {
	users := []string{"u1", "u2"}
	first := selectOnce(t, storage, "review", "h1", users)
	require.Equal(t, "u1", first.UserId)
	second := selectOnce(t, storage, "review", "h1", users)
	require.Equal(t, "u2", second.UserId)

	// the round is exhausted; the next selection clears counts and starts over
	third := selectOnce(t, storage, "review", "h1", users)
	require.Equal(t, "u1", third.UserId)
	require.Equal(t, 1, third.AssignmentCount)
	require.NotNil(t, third.LastAssignedAt)
}

func testDeactivatedUserSkipped(t *testing.T, storage *Storage) {
	selectOnce(t, storage, "review", "h1", []string{"u1", "u2"})

	// u1 left the group; only u2 remains eligible
	for i := 0; i < 3; i++ {
		entry := selectOnce(t, storage, "review", "h1", []string{"u2"})
		require.Equal(t, "u2", entry.UserId)
	}
}

func testReactivationKeepsCount(t *testing.T, storage *Storage) {
	selectOnce(t, storage, "review", "h1", []string{"u1", "u2"})
	selectOnce(t, storage, "review", "h1", []string{"u2"})

	// u1 rejoins with its historical count intact instead of restarting at 0
	err := storage.InTransaction(context.Background(), "review", "h1", func(tx persistence.RoundRobinTx) error {
		require.NoError(t, tx.SyncEligibleUsers(context.Background(), []string{"u1", "u2"}))
		entries, err := tx.Entries(context.Background())
		require.NoError(t, err)
		counts := make(map[string]int)
		for _, entry := range entries {
			require.True(t, entry.Active)
			counts[entry.UserId] = entry.AssignmentCount
		}
		require.Equal(t, map[string]int{"u1": 1, "u2": 1}, counts)
		return nil
	})
	require.NoError(t, err)
}

func testNoActiveEntries(t *testing.T, storage *Storage) {
	entry := selectOnce(t, storage, "review", "h1", nil)
	require.Nil(t, entry)
}

func testKeysIsolated(t *testing.T, storage *Storage) {
	first := selectOnce(t, storage, "review", "h1", []string{"u1", "u2"})
	require.Equal(t, "u1", first.UserId)

	// same users under a different group hash start their own rotation
	other := selectOnce(t, storage, "review", "h2", []string{"u1", "u2"})
	require.Equal(t, "u1", other.UserId)

	second := selectOnce(t, storage, "review", "h1", []string{"u1", "u2"})
	require.Equal(t, "u2", second.UserId)
}
