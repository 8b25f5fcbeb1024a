// Package matcher proposes ledger transactions for statement rows.
//
// The matcher uses strict matching criteria, in priority order:
//   - Amount must match within epsilon, same sign (hard filter)
//   - Date must be within the window; the exact date ranks above nearby dates
//   - Description similarity only orders candidates inside a date tier
//   - Transaction must be uncleared and not already claimed
//
// Example usage:
//
//	m := matcher.NewMatcher(matcher.DefaultConfig())
//	candidates := m.FindCandidates(row, journal.Transactions, claimed)
//	if len(matcher.TopTier(candidates)) == 1 {
//		// Unique best match
//	}
package matcher

import (
	"math"
	"sort"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
)

// Matcher matches statement rows with ledger transactions
type Matcher struct {
	config Config
}

// NewMatcher creates a new matcher with the given config
func NewMatcher(config Config) *Matcher {
	if config.DateWindowDays < 0 {
		config.DateWindowDays = 0
	}
	if config.AmountEpsilon.IsNegative() {
		config.AmountEpsilon = config.AmountEpsilon.Abs()
	}
	return &Matcher{
		config: config,
	}
}

// Config returns the matcher configuration.
func (m *Matcher) Config() Config {
	return m.config
}

// FindCandidates returns the plausible matches for a row, best first.
// Cleared transactions, transactions without a matching amount and ids in
// claimed are never offered. The result may be empty.
func (m *Matcher) FindCandidates(
	row statement.Row,
	transactions []ledger.Transaction,
	claimed map[int]bool,
) []Candidate {
	var candidates []Candidate

	for _, tx := range transactions {
		if tx.Cleared() || !tx.HasAmount || claimed[tx.ID] {
			continue
		}

		// Amount is a hard filter
		if tx.Amount.Sub(row.Amount).Abs().GreaterThan(m.config.AmountEpsilon) {
			continue
		}
		if tx.Amount.Sign() != row.Amount.Sign() {
			continue
		}

		days := daysApart(tx, row)
		if days > m.config.DateWindowDays {
			continue
		}

		tier := TierNearDate
		if days == 0 {
			tier = TierExactDate
		}

		candidates = append(candidates, Candidate{
			Transaction: tx,
			Tier:        tier,
			DaysApart:   days,
			Similarity:  Similarity(row.Description, tx.Description),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Tier != b.Tier {
			return a.Tier > b.Tier
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		if a.DaysApart != b.DaysApart {
			return a.DaysApart < b.DaysApart
		}
		return a.Transaction.ID < b.Transaction.ID
	})

	return candidates
}

// TopTier returns the leading candidates that share the best tier.
func TopTier(candidates []Candidate) []Candidate {
	if len(candidates) == 0 {
		return nil
	}
	n := 1
	for n < len(candidates) && candidates[n].Tier == candidates[0].Tier {
		n++
	}
	return candidates[:n]
}

// Pool binds a matcher to the transactions of one journal.
type Pool struct {
	matcher      *Matcher
	transactions []ledger.Transaction
}

// NewPool creates a candidate pool over a journal's transactions.
func NewPool(m *Matcher, journal *ledger.Journal) *Pool {
	return &Pool{matcher: m, transactions: journal.Transactions}
}

// FindCandidates returns candidates for row among unclaimed transactions.
func (p *Pool) FindCandidates(row statement.Row, claimed map[int]bool) []Candidate {
	return p.matcher.FindCandidates(row, p.transactions, claimed)
}

func daysApart(tx ledger.Transaction, row statement.Row) int {
	return int(math.Abs(math.Round(tx.Date.Sub(row.Date).Hours() / 24)))
}
