package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access for run history.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	// Foreign keys are per connection in SQLite, so enable them in the DSN
	// for every pooled connection.
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Run all pending migrations
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// StartRun records the start of a run
func (s *Storage) StartRun(run *Run) (int64, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = RunRunning

	query := `
		INSERT INTO reconcile_runs
		(run_key, ledger_name, statement_name, account, policy, dry_run, started_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		run.RunKey,
		run.LedgerName,
		run.StatementName,
		run.Account,
		run.Policy,
		run.DryRun,
		run.StartedAt,
		run.Status,
	)
	if err != nil {
		return 0, err
	}

	run.ID, err = result.LastInsertId()
	return run.ID, err
}

// CompleteRun records the completion of a run
func (s *Storage) CompleteRun(runID int64, counts RunCounts) error {
	query := `
		UPDATE reconcile_runs
		SET completed_at = ?,
		    rows_total = ?,
		    rows_matched = ?,
		    rows_chosen = ?,
		    rows_unmatched = ?,
		    rows_skipped = ?,
		    rows_malformed = ?,
		    status = ?
		WHERE id = ?
	`

	return s.exec(runID, query,
		time.Now().UTC(),
		counts.Rows,
		counts.Matched,
		counts.Chosen,
		counts.Unmatched,
		counts.Skipped,
		counts.Malformed,
		RunCompleted,
		runID,
	)
}

// FailRun marks a run as aborted or failed
func (s *Storage) FailRun(runID int64, status RunStatus, message string) error {
	query := `
		UPDATE reconcile_runs
		SET completed_at = ?, status = ?, error_message = ?
		WHERE id = ?
	`
	return s.exec(runID, query, time.Now().UTC(), status, message, runID)
}

func (s *Storage) exec(runID int64, query string, args ...any) error {
	result, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return nil
}

const runColumns = `
	id, run_key, ledger_name, statement_name, account, policy, dry_run,
	started_at, completed_at, rows_total, rows_matched, rows_chosen,
	rows_unmatched, rows_skipped, rows_malformed, status, error_message
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var completedAt sql.NullTime

	err := row.Scan(
		&run.ID,
		&run.RunKey,
		&run.LedgerName,
		&run.StatementName,
		&run.Account,
		&run.Policy,
		&run.DryRun,
		&run.StartedAt,
		&completedAt,
		&run.Rows,
		&run.Matched,
		&run.Chosen,
		&run.Unmatched,
		&run.Skipped,
		&run.Malformed,
		&run.Status,
		&run.ErrorMessage,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}

// ListRuns returns recent runs
func (s *Storage) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM reconcile_runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(runID int64) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM reconcile_runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %d: %w", runID, ErrNotFound)
	}
	return run, err
}

// GetRunByKey retrieves a run by its public key
func (s *Storage) GetRunByKey(key string) (*Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM reconcile_runs WHERE run_key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %q: %w", key, ErrNotFound)
	}
	return run, err
}

// SaveOutcome stores how one statement row was resolved
func (s *Storage) SaveOutcome(outcome *RowOutcome) error {
	if err := outcome.encodeCandidates(); err != nil {
		return fmt.Errorf("failed to encode candidates: %w", err)
	}
	if outcome.CreatedAt.IsZero() {
		outcome.CreatedAt = time.Now().UTC()
	}

	var txID sql.NullInt64
	if outcome.TransactionID != nil {
		txID = sql.NullInt64{Int64: int64(*outcome.TransactionID), Valid: true}
	}

	query := `
		INSERT OR REPLACE INTO row_outcomes
		(run_id, row_index, line, row_date, amount, description, status,
		 transaction_id, ledger_line, candidates_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.Exec(query,
		outcome.RunID,
		outcome.RowIndex,
		outcome.Line,
		outcome.Date,
		outcome.Amount,
		outcome.Description,
		outcome.Status,
		txID,
		outcome.LedgerLine,
		outcome.CandidatesJSON,
		outcome.CreatedAt,
	)
	if err != nil {
		return err
	}

	outcome.ID, err = result.LastInsertId()
	return err
}

// ListOutcomes returns the outcomes of a run in row order
func (s *Storage) ListOutcomes(runID int64) ([]RowOutcome, error) {
	query := `
		SELECT id, run_id, row_index, line, row_date, amount, description, status,
		       transaction_id, ledger_line, candidates_json, created_at
		FROM row_outcomes
		WHERE run_id = ?
		ORDER BY row_index
	`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	outcomes := make([]RowOutcome, 0)
	for rows.Next() {
		var o RowOutcome
		var txID sql.NullInt64

		if err := rows.Scan(
			&o.ID,
			&o.RunID,
			&o.RowIndex,
			&o.Line,
			&o.Date,
			&o.Amount,
			&o.Description,
			&o.Status,
			&txID,
			&o.LedgerLine,
			&o.CandidatesJSON,
			&o.CreatedAt,
		); err != nil {
			return nil, err
		}

		if txID.Valid {
			id := int(txID.Int64)
			o.TransactionID = &id
		}
		if err := o.decodeCandidates(); err != nil {
			return nil, fmt.Errorf("failed to decode candidates for row %d: %w", o.RowIndex, err)
		}
		outcomes = append(outcomes, o)
	}

	return outcomes, rows.Err()
}
