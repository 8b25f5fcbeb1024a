package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

func openHistory(t *testing.T, path string) *storage.Storage {
	t.Helper()
	store, err := storage.NewStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedRun(t *testing.T, repo storage.Repository) *storage.Run {
	t.Helper()
	run := &storage.Run{RunKey: "key-1", LedgerName: "main.journal", StatementName: "bank.csv", Policy: "skip"}
	id, err := repo.StartRun(run)
	require.NoError(t, err)
	require.NoError(t, repo.CompleteRun(id, storage.RunCounts{Rows: 1, Matched: 1}))
	txID := 0
	require.NoError(t, repo.SaveOutcome(&storage.RowOutcome{
		RunID: id, RowIndex: 0, Line: 2, Date: "2024-01-05", Amount: "-42.00",
		Description: "COFFEE SHOP", Status: "matched", TransactionID: &txID, LedgerLine: 1,
	}))
	return run
}

func TestRunRuns_List(t *testing.T) {
	repo := storage.NewMockRepository()
	seedRun(t, repo)
	out := &bytes.Buffer{}

	require.NoError(t, RunRuns(repo, &RunsFlags{Limit: 10}, Env{Stdout: out}))

	assert.Contains(t, out.String(), "bank.csv")
	assert.Contains(t, out.String(), "completed")
}

func TestRunRuns_Empty(t *testing.T) {
	out := &bytes.Buffer{}
	require.NoError(t, RunRuns(storage.NewMockRepository(), &RunsFlags{Limit: 10}, Env{Stdout: out}))
	assert.Equal(t, "No runs recorded.\n", out.String())
}

func TestRunRuns_RowsByIDOrKey(t *testing.T) {
	repo := storage.NewMockRepository()
	run := seedRun(t, repo)

	for _, ref := range []string{"1", run.RunKey} {
		out := &bytes.Buffer{}
		require.NoError(t, RunRuns(repo, &RunsFlags{Run: ref}, Env{Stdout: out}))
		assert.Contains(t, out.String(), "COFFEE SHOP")
		assert.Contains(t, out.String(), "ledger line 1")
	}
}

func TestRunRuns_UnknownRun(t *testing.T) {
	err := RunRuns(storage.NewMockRepository(), &RunsFlags{Run: "nope"}, Env{Stdout: &bytes.Buffer{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, strings.Repeat("a", 9)+"~", truncate(strings.Repeat("a", 20), 10))
}
