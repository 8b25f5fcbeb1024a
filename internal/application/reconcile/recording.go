package reconcile

import (
	"errors"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// Recording functions persist run history. Storage failures are logged and
// never fail the run.

// maxStoredCandidates caps the candidates kept per row outcome.
const maxStoredCandidates = 5

// startRun records the start of a run and returns its ID (0 if not recorded)
func (o *Orchestrator) startRun(key string, input Input, opts Options) int64 {
	if o.storage == nil {
		return 0
	}

	id, err := o.storage.StartRun(&storage.Run{
		RunKey:        key,
		LedgerName:    input.LedgerName,
		StatementName: input.StatementName,
		Account:       opts.Account,
		Policy:        opts.Policy,
		DryRun:        opts.DryRun,
	})
	if err != nil {
		o.logger.Error("Failed to record run start", "error", err)
		return 0
	}
	return id
}

// failRun marks a run as aborted or failed
func (o *Orchestrator) failRun(runID int64, cause error) {
	if o.storage == nil || runID == 0 {
		return
	}

	status := storage.RunFailed
	if errors.Is(cause, resolver.ErrAborted) {
		status = storage.RunAborted
	}
	if err := o.storage.FailRun(runID, status, cause.Error()); err != nil {
		o.logger.Error("Failed to record run failure", "run_id", runID, "error", err)
	}
}

// completeRun records the final counters of a run
func (o *Orchestrator) completeRun(runID int64, s Summary) {
	if o.storage == nil || runID == 0 {
		return
	}

	counts := storage.RunCounts{
		Rows:      s.Rows,
		Matched:   s.Matched,
		Chosen:    s.AmbiguousResolved,
		Unmatched: s.Unmatched,
		Skipped:   s.Skipped,
		Malformed: s.MalformedRows,
	}
	if err := o.storage.CompleteRun(runID, counts); err != nil {
		o.logger.Error("Failed to record run completion", "run_id", runID, "error", err)
	}
}

// recordOutcomes saves one outcome per statement row
func (o *Orchestrator) recordOutcomes(runID int64, journal *ledger.Journal, result *resolver.Result) {
	if o.storage == nil || runID == 0 {
		return
	}

	for _, outcome := range result.Outcomes {
		record := &storage.RowOutcome{
			RunID:       runID,
			RowIndex:    outcome.Row.Index,
			Line:        outcome.Row.Line,
			Date:        outcome.Row.Date.Format("2006-01-02"),
			Amount:      outcome.Row.Amount.StringFixed(2),
			Description: outcome.Row.Description,
			Status:      string(outcome.Status),
		}

		if outcome.Accepted() {
			id := outcome.TransactionID
			record.TransactionID = &id
			if tx, ok := journal.Transaction(id); ok {
				record.LedgerLine = tx.Line
			}
		}

		for i, c := range outcome.Candidates {
			if i == maxStoredCandidates {
				break
			}
			record.Candidates = append(record.Candidates, storage.Match{
				TransactionID: c.Transaction.ID,
				LedgerLine:    c.Transaction.Line,
				Date:          c.Transaction.Date.Format("2006-01-02"),
				Amount:        c.Transaction.Amount.StringFixed(2),
				Description:   c.Transaction.Description,
				Tier:          c.Tier.String(),
				Similarity:    c.Similarity,
			})
		}

		if err := o.storage.SaveOutcome(record); err != nil {
			o.logger.Error("Failed to save row outcome", "run_id", runID, "row", outcome.Row.Line, "error", err)
		}
	}
}
