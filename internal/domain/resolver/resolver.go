// Package resolver turns candidate lists into a final row to transaction
// mapping.
//
// Rows are processed strictly in input order. A transaction accepted for
// one row is claimed and never offered to a later row, even if that row
// would have matched it better (first row wins, no backtracking).
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
)

// Resolver resolves statement rows against a candidate finder.
type Resolver struct {
	finder  CandidateFinder
	chooser Chooser
	logger  *slog.Logger
}

// New creates a resolver. A nil chooser skips every ambiguous row.
func New(finder CandidateFinder, chooser Chooser, logger *slog.Logger) *Resolver {
	if chooser == nil {
		chooser = SkipAll
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		finder:  finder,
		chooser: chooser,
		logger:  logger,
	}
}

// Resolve maps every row to an outcome. It returns ErrAborted, and no
// result, when the chooser aborts.
func (r *Resolver) Resolve(ctx context.Context, rows []statement.Row) (*Result, error) {
	claimed := make(map[int]bool)
	result := &Result{Outcomes: make([]Outcome, 0, len(rows))}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, err := r.resolveRow(ctx, row, claimed)
		if err != nil {
			return nil, err
		}
		if outcome.Accepted() {
			claimed[outcome.TransactionID] = true
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return result, nil
}

func (r *Resolver) resolveRow(ctx context.Context, row statement.Row, claimed map[int]bool) (Outcome, error) {
	candidates := r.finder.FindCandidates(row, claimed)
	outcome := Outcome{
		Row:           row,
		TransactionID: -1,
		Candidates:    candidates,
	}

	top := matcher.TopTier(candidates)
	switch len(top) {
	case 0:
		outcome.Status = StatusUnmatched
		r.logger.Debug("No candidate", "row", row.Line, "amount", row.Amount.String(), "date", row.Date.Format("2006-01-02"))
		return outcome, nil
	case 1:
		outcome.Status = StatusMatched
		outcome.TransactionID = top[0].Transaction.ID
		r.logger.Debug("Matched",
			"row", row.Line,
			"transaction", top[0].Transaction.ID,
			"tier", top[0].Tier.String())
		return outcome, nil
	}

	r.logger.Debug("Ambiguous match", "row", row.Line, "candidates", len(top))
	decision, err := r.chooser.Choose(ctx, Prompt{
		Row:        row,
		Candidates: candidates,
		TopCount:   len(top),
	})
	if err != nil {
		return outcome, fmt.Errorf("choose for row %d: %w", row.Line, err)
	}

	switch decision.Action {
	case Abort:
		r.logger.Info("Run aborted", "row", row.Line)
		return outcome, ErrAborted
	case Accept:
		id := decision.Candidate.Transaction.ID
		if !presented(candidates, id) {
			return outcome, fmt.Errorf("row %d: transaction %d was not offered", row.Line, id)
		}
		outcome.Status = StatusChosen
		outcome.TransactionID = id
		r.logger.Debug("Chosen", "row", row.Line, "transaction", id)
	default:
		outcome.Status = StatusSkipped
		r.logger.Debug("Skipped", "row", row.Line)
	}
	return outcome, nil
}

func presented(candidates []matcher.Candidate, id int) bool {
	for _, c := range candidates {
		if c.Transaction.ID == id {
			return true
		}
	}
	return false
}
