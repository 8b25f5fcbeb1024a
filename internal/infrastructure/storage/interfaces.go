package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	OutcomeRepository
	Close() error
}

// RunRepository handles reconcile run tracking
type RunRepository interface {
	// StartRun records the start of a run and returns its database ID
	StartRun(run *Run) (int64, error)

	// CompleteRun records the final counts of a successful run
	CompleteRun(runID int64, counts RunCounts) error

	// FailRun marks a run as aborted or failed
	FailRun(runID int64, status RunStatus, message string) error

	// ListRuns returns recent runs, newest first
	ListRuns(limit int) ([]Run, error)

	// GetRun retrieves a run by ID
	GetRun(runID int64) (*Run, error)

	// GetRunByKey retrieves a run by its public key
	GetRunByKey(key string) (*Run, error)
}

// OutcomeRepository handles per-row outcome records
type OutcomeRepository interface {
	// SaveOutcome stores how one statement row was resolved
	SaveOutcome(outcome *RowOutcome) error

	// ListOutcomes returns the outcomes of a run in row order
	ListOutcomes(runID int64) ([]RowOutcome, error)
}
