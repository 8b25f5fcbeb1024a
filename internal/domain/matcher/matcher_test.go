package matcher

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

// Helper to create test transaction
func makeTransaction(id int, amount string, date time.Time, description string) ledger.Transaction {
	return ledger.Transaction{
		ID:          id,
		Date:        date,
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		HasAmount:   true,
	}
}

func makeRow(amount string, date time.Time, description string) statement.Row {
	return statement.Row{
		Date:        date,
		Amount:      decimal.RequireFromString(amount),
		Description: description,
	}
}

func ids(candidates []Candidate) []int {
	out := make([]int, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Transaction.ID)
	}
	return out
}

func TestMatcher_ExactMatch(t *testing.T) {
	// Arrange
	matcher := NewMatcher(DefaultConfig())
	transactions := []ledger.Transaction{
		makeTransaction(0, "-42.00", day(5), "Coffee Shop"),
		makeTransaction(1, "-43.00", day(5), "Coffee Shop"),
	}

	// Act
	candidates := matcher.FindCandidates(makeRow("-42", day(5), "COFFEE SHOP #12"), transactions, nil)

	// Assert
	require.Len(t, candidates, 1)
	assert.Equal(t, 0, candidates[0].Transaction.ID)
	assert.Equal(t, TierExactDate, candidates[0].Tier)
	assert.Equal(t, 0, candidates[0].DaysApart)
	assert.Equal(t, 1.0, candidates[0].Similarity)
}

func TestMatcher_SignMustMatch(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	transactions := []ledger.Transaction{
		makeTransaction(0, "42.00", day(5), "Refund"),
	}

	candidates := matcher.FindCandidates(makeRow("-42.00", day(5), "Refund"), transactions, nil)

	assert.Empty(t, candidates)
}

func TestMatcher_DateWindow(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	transactions := []ledger.Transaction{
		makeTransaction(0, "-10.00", day(5), "Lunch"),
		makeTransaction(1, "-10.00", day(11), "Lunch"),
	}

	t.Run("within window is a near-date candidate", func(t *testing.T) {
		candidates := matcher.FindCandidates(makeRow("-10.00", day(7), ""), transactions, nil)
		require.Len(t, candidates, 1)
		assert.Equal(t, 0, candidates[0].Transaction.ID)
		assert.Equal(t, TierNearDate, candidates[0].Tier)
		assert.Equal(t, 2, candidates[0].DaysApart)
	})

	t.Run("outside window is excluded", func(t *testing.T) {
		candidates := matcher.FindCandidates(makeRow("-10.00", day(1), ""), transactions, nil)
		assert.Empty(t, candidates)
	})

	t.Run("window is configurable", func(t *testing.T) {
		wide := NewMatcher(Config{AmountEpsilon: decimal.New(1, -6), DateWindowDays: 10})
		candidates := wide.FindCandidates(makeRow("-10.00", day(1), ""), transactions, nil)
		assert.Equal(t, []int{0, 1}, ids(candidates))
	})
}

func TestMatcher_ExcludesClearedClaimedAndAmountless(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())

	cleared := makeTransaction(0, "-5", day(3), "A")
	cleared.Status = ledger.Cleared
	amountless := makeTransaction(1, "-5", day(3), "B")
	amountless.HasAmount = false
	claimed := makeTransaction(2, "-5", day(3), "C")
	pending := makeTransaction(3, "-5", day(3), "D")
	pending.Status = ledger.Pending

	candidates := matcher.FindCandidates(
		makeRow("-5", day(3), ""),
		[]ledger.Transaction{cleared, amountless, claimed, pending},
		map[int]bool{2: true},
	)

	assert.Equal(t, []int{3}, ids(candidates))
}

func TestMatcher_Ordering(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	transactions := []ledger.Transaction{
		makeTransaction(0, "-20", day(3), "Gas Station B"),
		makeTransaction(1, "-20", day(2), "Corner Gas Station A"),
		makeTransaction(2, "-20", day(1), "Bakery"),
		makeTransaction(3, "-20", day(1), "Gas Station A"),
		makeTransaction(4, "-20", day(1), "Pharmacy"),
	}

	candidates := matcher.FindCandidates(makeRow("-20", day(1), "gas station a"), transactions, nil)

	// Exact-date tier first, ordered by similarity then id; a better
	// description never lifts a near-date candidate above the exact tier.
	assert.Equal(t, []int{3, 2, 4, 1, 0}, ids(candidates)[:5])
	assert.Equal(t, TierExactDate, candidates[2].Tier)
	assert.Equal(t, TierNearDate, candidates[3].Tier)
	assert.Len(t, TopTier(candidates), 3)
}

func TestMatcher_TiesBrokenByID(t *testing.T) {
	matcher := NewMatcher(DefaultConfig())
	transactions := []ledger.Transaction{
		makeTransaction(7, "-20", day(1), "Gas Station B"),
		makeTransaction(4, "-20", day(1), "Gas Station A"),
	}

	candidates := matcher.FindCandidates(makeRow("-20", day(1), ""), transactions, nil)

	assert.Equal(t, []int{4, 7}, ids(candidates))
	assert.Len(t, TopTier(candidates), 2)
}

func TestMatcher_AmountHardFilterProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	matcher := NewMatcher(DefaultConfig())
	epsilon := matcher.Config().AmountEpsilon

	randomAmount := func() decimal.Decimal {
		return decimal.New(rng.Int63n(20001)-10000, -2)
	}

	for iter := 0; iter < 200; iter++ {
		transactions := make([]ledger.Transaction, 30)
		for i := range transactions {
			transactions[i] = ledger.Transaction{
				ID:        i,
				Date:      day(1 + rng.Intn(10)),
				Amount:    randomAmount(),
				HasAmount: true,
			}
		}
		row := statement.Row{Date: day(1 + rng.Intn(10)), Amount: transactions[rng.Intn(30)].Amount}
		if rng.Intn(2) == 0 {
			row.Amount = randomAmount()
		}

		for _, c := range matcher.FindCandidates(row, transactions, nil) {
			diff := c.Transaction.Amount.Sub(row.Amount).Abs()
			require.True(t, diff.LessThanOrEqual(epsilon),
				"candidate %s for row amount %s", c.Transaction.Amount, row.Amount)
		}
	}
}

func TestTopTier_Empty(t *testing.T) {
	assert.Nil(t, TopTier(nil))
}

func TestPool_FindCandidates(t *testing.T) {
	journal, err := ledger.Parse("2024-01-05 Coffee Shop\n  expenses:coffee  $42\n  assets:checking\n", ledger.ParseOptions{})
	require.NoError(t, err)

	pool := NewPool(NewMatcher(DefaultConfig()), journal)

	candidates := pool.FindCandidates(makeRow("-42.00", day(5), "coffee"), nil)
	assert.Equal(t, []int{0}, ids(candidates))

	candidates = pool.FindCandidates(makeRow("-42.00", day(5), "coffee"), map[int]bool{0: true})
	assert.Empty(t, candidates)
}
