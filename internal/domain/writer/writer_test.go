package writer

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
)

const journalText = `; household journal
2024-01-05 Coffee Shop  ; morning
    expenses:coffee       $42.00
    assets:checking

2024-01-06 ! (1042) Rent
    expenses:rent       $1200.00
    assets:checking

2024-01-07 * Salary
    assets:checking     $3000.00
    income:salary

2024-01-08=2024-01-09 Bookshop
	expenses:books	$15.50
	assets:checking
`

func parse(t *testing.T, text string) *ledger.Journal {
	t.Helper()
	journal, err := ledger.Parse(text, ledger.ParseOptions{})
	require.NoError(t, err)
	return journal
}

func TestApply(t *testing.T) {
	journal := parse(t, journalText)

	t.Run("unmarked gets a marker after the date", func(t *testing.T) {
		out, err := Apply(journal, []int{0})
		require.NoError(t, err)
		assert.Contains(t, out, "2024-01-05 * Coffee Shop  ; morning\n")
		assert.Equal(t, len(journalText)+2, len(out))
	})

	t.Run("pending marker is replaced", func(t *testing.T) {
		out, err := Apply(journal, []int{1})
		require.NoError(t, err)
		assert.Contains(t, out, "2024-01-06 * (1042) Rent\n")
		assert.Equal(t, len(journalText), len(out))
	})

	t.Run("secondary date", func(t *testing.T) {
		out, err := Apply(journal, []int{3})
		require.NoError(t, err)
		assert.Contains(t, out, "2024-01-08=2024-01-09 * Bookshop\n")
	})

	t.Run("cleared is a no-op", func(t *testing.T) {
		out, err := Apply(journal, []int{2})
		require.NoError(t, err)
		assert.Equal(t, journalText, out)
	})

	t.Run("nothing accepted", func(t *testing.T) {
		out, err := Apply(journal, nil)
		require.NoError(t, err)
		assert.Equal(t, journalText, out)
	})
}

func TestApply_SpanPreservation(t *testing.T) {
	journal := parse(t, journalText)

	out, err := Apply(journal, []int{3, 0})
	require.NoError(t, err)

	before := strings.Split(journalText, "\n")
	after := strings.Split(out, "\n")
	require.Equal(t, len(before), len(after))

	changed := map[int]bool{
		journal.Transactions[0].Line - 1: true,
		journal.Transactions[3].Line - 1: true,
	}
	for i := range before {
		if changed[i] {
			assert.NotEqual(t, before[i], after[i], "line %d", i+1)
			continue
		}
		assert.Equal(t, before[i], after[i], "line %d", i+1)
	}
}

func TestApply_Idempotent(t *testing.T) {
	first, err := Apply(parse(t, journalText), []int{0, 1, 3})
	require.NoError(t, err)

	again := parse(t, first)
	for _, tx := range again.Transactions {
		assert.True(t, tx.Cleared(), tx.Description)
	}

	second, err := Apply(again, []int{0, 1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestApply_Errors(t *testing.T) {
	journal := parse(t, journalText)

	stale := *journal
	stale.Transactions = append([]ledger.Transaction(nil), journal.Transactions...)
	stale.Transactions[1].StatusSpan = ledger.Span{Start: 0, End: 1}

	overlapping := *journal
	overlapping.Transactions = append([]ledger.Transaction(nil), journal.Transactions...)
	overlapping.Transactions[3].StatusSpan = overlapping.Transactions[0].StatusSpan

	outOfRange := *journal
	outOfRange.Transactions = append([]ledger.Transaction(nil), journal.Transactions...)
	outOfRange.Transactions[0].StatusSpan = ledger.Span{Start: len(journalText) + 5, End: len(journalText) + 5}

	misplaced := *journal
	misplaced.Transactions = append([]ledger.Transaction(nil), journal.Transactions...)
	misplaced.Transactions[0].StatusSpan = ledger.Span{Start: 3, End: 3}

	tests := []struct {
		name     string
		journal  *ledger.Journal
		accepted []int
		reason   string
	}{
		{"unknown id", journal, []int{42}, "unknown transaction"},
		{"duplicate id", journal, []int{0, 0}, "accepted twice"},
		{"stale pending span", &stale, []int{1}, "stale span"},
		{"overlapping spans", &overlapping, []int{0, 3}, "overlaps"},
		{"out of range", &outOfRange, []int{0}, "out of range"},
		{"not after a date", &misplaced, []int{0}, "not at the end of a date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Apply(tt.journal, tt.accepted)

			require.Error(t, err)
			assert.Empty(t, out)
			var writeErr *WriteError
			require.True(t, errors.As(err, &writeErr))
			assert.Contains(t, writeErr.Reason, tt.reason)
		})
	}
}

func TestDiff(t *testing.T) {
	journal := parse(t, journalText)
	out, err := Apply(journal, []int{0})
	require.NoError(t, err)

	diff, err := Diff("main.journal", journalText, out)

	require.NoError(t, err)
	assert.Contains(t, diff, "--- main.journal")
	assert.Contains(t, diff, "+++ main.journal (cleared)")
	assert.Contains(t, diff, "-2024-01-05 Coffee Shop  ; morning")
	assert.Contains(t, diff, "+2024-01-05 * Coffee Shop  ; morning")

	empty, err := Diff("main.journal", journalText, journalText)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
