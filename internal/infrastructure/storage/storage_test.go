package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func openStore(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(createTempDB(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStorage_RunLifecycle(t *testing.T) {
	store := openStore(t)

	run := &Run{
		RunKey:        "run-1",
		LedgerName:    "main.journal",
		StatementName: "jan.csv",
		Account:       "assets:checking",
		Policy:        "skip",
		DryRun:        true,
	}
	id, err := store.StartRun(run)
	require.NoError(t, err)
	assert.Equal(t, id, run.ID)

	got, err := store.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, got.Status)
	assert.Equal(t, "main.journal", got.LedgerName)
	assert.True(t, got.DryRun)
	assert.Nil(t, got.CompletedAt)

	counts := RunCounts{Rows: 5, Matched: 2, Chosen: 1, Unmatched: 1, Skipped: 1, Malformed: 2}
	require.NoError(t, store.CompleteRun(id, counts))

	got, err = store.GetRunByKey("run-1")
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, got.Status)
	assert.Equal(t, counts, got.RunCounts)
	assert.NotNil(t, got.CompletedAt)
}

func TestStorage_FailRun(t *testing.T) {
	store := openStore(t)

	id, err := store.StartRun(&Run{RunKey: "run-abort", Policy: "abort"})
	require.NoError(t, err)

	require.NoError(t, store.FailRun(id, RunAborted, "reconciliation aborted"))

	got, err := store.GetRun(id)
	require.NoError(t, err)
	assert.Equal(t, RunAborted, got.Status)
	assert.Equal(t, "reconciliation aborted", got.ErrorMessage)
}

func TestStorage_NotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.GetRun(42)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.GetRunByKey("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.CompleteRun(42, RunCounts{}), ErrNotFound)
}

func TestStorage_ListRuns(t *testing.T) {
	store := openStore(t)

	for _, key := range []string{"a", "b", "c"} {
		_, err := store.StartRun(&Run{RunKey: key})
		require.NoError(t, err)
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].RunKey)
	assert.Equal(t, "b", runs[1].RunKey)

	_, err = store.StartRun(&Run{RunKey: "a"})
	assert.Error(t, err, "run keys are unique")
}

func TestStorage_Outcomes(t *testing.T) {
	store := openStore(t)

	runID, err := store.StartRun(&Run{RunKey: "run-outcomes"})
	require.NoError(t, err)

	txID := 3
	require.NoError(t, store.SaveOutcome(&RowOutcome{
		RunID:       runID,
		RowIndex:    1,
		Line:        3,
		Date:        "2024-02-01",
		Amount:      "-20.00",
		Description: "GAS",
		Status:      "skipped",
		Candidates: []Match{
			{TransactionID: 1, LedgerLine: 4, Tier: "exact-date", Similarity: 0.5},
			{TransactionID: 2, LedgerLine: 8, Tier: "exact-date", Similarity: 0.5},
		},
	}))
	require.NoError(t, store.SaveOutcome(&RowOutcome{
		RunID:         runID,
		RowIndex:      0,
		Line:          2,
		Date:          "2024-01-05",
		Amount:        "-42.00",
		Description:   "Coffee Shop",
		Status:        "matched",
		TransactionID: &txID,
		LedgerLine:    12,
	}))

	outcomes, err := store.ListOutcomes(runID)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, 0, outcomes[0].RowIndex)
	require.NotNil(t, outcomes[0].TransactionID)
	assert.Equal(t, 3, *outcomes[0].TransactionID)
	assert.Empty(t, outcomes[0].Candidates)

	assert.Nil(t, outcomes[1].TransactionID)
	require.Len(t, outcomes[1].Candidates, 2)
	assert.Equal(t, 8, outcomes[1].Candidates[1].LedgerLine)

	err = store.SaveOutcome(&RowOutcome{RunID: 999, Status: "matched"})
	assert.Error(t, err, "foreign key to reconcile_runs")
}

func TestMockRepository(t *testing.T) {
	repo := NewMockRepository()

	id, err := repo.StartRun(&Run{RunKey: "k"})
	require.NoError(t, err)
	require.NoError(t, repo.SaveOutcome(&RowOutcome{RunID: id, RowIndex: 1}))
	require.NoError(t, repo.SaveOutcome(&RowOutcome{RunID: id, RowIndex: 0}))
	require.NoError(t, repo.CompleteRun(id, RunCounts{Rows: 2}))

	run, err := repo.GetRunByKey("k")
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 2, run.Rows)

	outcomes, err := repo.ListOutcomes(id)
	require.NoError(t, err)
	assert.Equal(t, 0, outcomes[0].RowIndex)
	assert.Equal(t, 2, repo.SaveOutcomeCalls)

	_, err = repo.GetRun(99)
	assert.ErrorIs(t, err, ErrNotFound)
}
