package reconcile

import (
	"log/slog"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// Input is the already-loaded text of one run.
type Input struct {
	LedgerText    string
	LedgerName    string // used in diffs and run history
	StatementData []byte
	StatementName string
}

// Options holds reconcile configuration
type Options struct {
	Account   string // account whose postings are matched; empty uses the last posting
	Statement statement.Config
	Matcher   matcher.Config
	Chooser   resolver.Chooser
	Policy    string // recorded with the run
	DryRun    bool   // recorded with the run; Commit is not called

	// Commit persists the updated ledger text. The run is recorded as
	// completed only after it succeeds. Nil leaves writing to the caller.
	Commit func(updated string) error
}

// DefaultOptions returns options with parser and matcher defaults and the
// skip policy.
func DefaultOptions() Options {
	return Options{
		Statement: statement.DefaultConfig(),
		Matcher:   matcher.DefaultConfig(),
		Chooser:   resolver.SkipAll,
		Policy:    resolver.PolicySkip,
	}
}

// Report is the outcome of a completed run
type Report struct {
	RunKey  string
	RunID   int64 // zero when no repository is configured
	Journal *ledger.Journal
	Result  *resolver.Result
	Summary Summary

	Updated string // ledger text with accepted transactions cleared
	Diff    string // unified diff of Journal.Text against Updated
}

// Changed reports whether the updated ledger differs from the input.
func (r *Report) Changed() bool {
	return r.Updated != r.Journal.Text
}

// Summary holds the run counters and the rows that need attention
type Summary struct {
	Rows              int         `json:"rows"`
	Matched           int         `json:"matched"`
	AmbiguousResolved int         `json:"ambiguous_resolved"`
	Unmatched         int         `json:"unmatched"`
	Skipped           int         `json:"skipped"`
	MalformedRows     int         `json:"malformed_rows"`
	Unresolved        []RowDetail `json:"unresolved"`
	Malformed         []string    `json:"malformed"`
}

// Cleared returns the number of transactions marked cleared by the run.
func (s Summary) Cleared() int {
	return s.Matched + s.AmbiguousResolved
}

// RowDetail identifies a statement row for a human to investigate
type RowDetail struct {
	Line        int    `json:"line"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Candidates  int    `json:"candidates"`
}

// Orchestrator runs the parse, resolve and write pipeline
type Orchestrator struct {
	storage storage.Repository
	logger  *slog.Logger
}

// NewOrchestrator creates a new orchestrator. repo may be nil, in which
// case runs are not recorded.
func NewOrchestrator(repo storage.Repository, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		storage: repo,
		logger:  logger,
	}
}
