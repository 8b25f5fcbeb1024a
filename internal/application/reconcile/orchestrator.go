// Package reconcile runs one reconciliation of a statement against a ledger:
// parse both inputs, resolve every row and mark the accepted transactions
// cleared.
//
// Runs are all-or-nothing. Run returns the updated text only when every
// stage succeeded; on any error, including an abort from the chooser, the
// caller has nothing to write.
package reconcile

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
	"github.com/eshaffer321/hledger-clear/internal/domain/writer"
)

// Run reconciles input and returns the report. It returns an error
// wrapping resolver.ErrAborted when the chooser aborts.
func (o *Orchestrator) Run(ctx context.Context, input Input, opts Options) (*Report, error) {
	report := &Report{RunKey: uuid.NewString()}
	logger := o.logger.With("run", report.RunKey[:8])

	report.RunID = o.startRun(report.RunKey, input, opts)

	journal, err := ledger.Parse(input.LedgerText, ledger.ParseOptions{Account: opts.Account})
	if err != nil {
		o.failRun(report.RunID, err)
		return nil, fmt.Errorf("parse ledger %s: %w", input.LedgerName, err)
	}
	report.Journal = journal
	logger.Debug("Parsed ledger",
		"transactions", len(journal.Transactions),
		"uncleared", len(journal.Uncleared()))

	stmt, err := statement.Parse(bytes.NewReader(input.StatementData), opts.Statement)
	if err != nil {
		o.failRun(report.RunID, err)
		return nil, fmt.Errorf("parse statement %s: %w", input.StatementName, err)
	}
	for _, skipped := range stmt.Skipped {
		logger.Warn("Skipped malformed statement row", "line", skipped.Line, "error", skipped.Err)
	}
	logger.Debug("Parsed statement", "rows", len(stmt.Rows), "malformed", len(stmt.Skipped))

	pool := matcher.NewPool(matcher.NewMatcher(opts.Matcher), journal)
	result, err := resolver.New(pool, opts.Chooser, logger).Resolve(ctx, stmt.Rows)
	if err != nil {
		o.failRun(report.RunID, err)
		if errors.Is(err, resolver.ErrAborted) {
			logger.Warn("Run aborted, ledger left untouched")
		}
		return nil, err
	}
	report.Result = result

	updated, err := writer.Apply(journal, result.Accepted())
	if err != nil {
		o.failRun(report.RunID, err)
		return nil, fmt.Errorf("update ledger: %w", err)
	}
	report.Updated = updated

	report.Diff, err = writer.Diff(input.LedgerName, journal.Text, updated)
	if err != nil {
		// The diff is a preview only; the update itself is valid.
		logger.Warn("Failed to render diff", "error", err)
	}

	report.Summary = summarize(result, stmt)
	o.recordOutcomes(report.RunID, journal, result)

	if opts.Commit != nil && !opts.DryRun {
		if err := opts.Commit(updated); err != nil {
			o.failRun(report.RunID, err)
			return nil, err
		}
	}
	o.completeRun(report.RunID, report.Summary)

	logger.Info("Reconciliation complete",
		"rows", report.Summary.Rows,
		"cleared", report.Summary.Cleared(),
		"unmatched", report.Summary.Unmatched,
		"skipped", report.Summary.Skipped,
		"malformed", report.Summary.MalformedRows)

	return report, nil
}

func summarize(result *resolver.Result, stmt *statement.Statement) Summary {
	s := Summary{
		Rows:              len(result.Outcomes),
		Matched:           result.Count(resolver.StatusMatched),
		AmbiguousResolved: result.Count(resolver.StatusChosen),
		Unmatched:         result.Count(resolver.StatusUnmatched),
		Skipped:           result.Count(resolver.StatusSkipped),
		MalformedRows:     len(stmt.Skipped),
		Unresolved:        []RowDetail{},
		Malformed:         []string{},
	}

	for _, outcome := range result.Outcomes {
		if outcome.Accepted() {
			continue
		}
		s.Unresolved = append(s.Unresolved, RowDetail{
			Line:        outcome.Row.Line,
			Date:        outcome.Row.Date.Format("2006-01-02"),
			Amount:      outcome.Row.Amount.StringFixed(2),
			Description: outcome.Row.Description,
			Status:      string(outcome.Status),
			Candidates:  len(outcome.Candidates),
		})
	}
	for _, skipped := range stmt.Skipped {
		s.Malformed = append(s.Malformed, skipped.Error())
	}

	return s
}
