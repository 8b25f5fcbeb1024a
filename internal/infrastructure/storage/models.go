package storage

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
	RunFailed    RunStatus = "failed"
)

// Run represents one reconciliation of a statement against a ledger
type Run struct {
	ID            int64      `json:"id"`
	RunKey        string     `json:"run_key"`
	LedgerName    string     `json:"ledger_name"`
	StatementName string     `json:"statement_name"`
	Account       string     `json:"account,omitempty"`
	Policy        string     `json:"policy"`
	DryRun        bool       `json:"dry_run"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	Status        RunStatus  `json:"status"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	RunCounts
}

// RunCounts are the summary counters of a finished run
type RunCounts struct {
	Rows      int `json:"rows"`
	Matched   int `json:"matched"`
	Chosen    int `json:"chosen"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
	Malformed int `json:"malformed"`
}

// RowOutcome records how one statement row was resolved
type RowOutcome struct {
	ID            int64     `json:"id"`
	RunID         int64     `json:"run_id"`
	RowIndex      int       `json:"row_index"`
	Line          int       `json:"line"`
	Date          string    `json:"date"`
	Amount        string    `json:"amount"`
	Description   string    `json:"description"`
	Status        string    `json:"status"`
	TransactionID *int      `json:"transaction_id,omitempty"`
	LedgerLine    int       `json:"ledger_line,omitempty"`
	Candidates    []Match   `json:"candidates"`
	CreatedAt     time.Time `json:"created_at"`

	CandidatesJSON string `json:"-"` // For DB storage
}

// Match is a stored summary of one candidate offered for a row
type Match struct {
	TransactionID int     `json:"transaction_id"`
	LedgerLine    int     `json:"ledger_line"`
	Date          string  `json:"date"`
	Amount        string  `json:"amount"`
	Description   string  `json:"description"`
	Tier          string  `json:"tier"`
	Similarity    float64 `json:"similarity"`
}

func (o *RowOutcome) encodeCandidates() error {
	if o.Candidates == nil {
		o.CandidatesJSON = "[]"
		return nil
	}
	data, err := json.Marshal(o.Candidates)
	if err != nil {
		return err
	}
	o.CandidatesJSON = string(data)
	return nil
}

func (o *RowOutcome) decodeCandidates() error {
	if o.CandidatesJSON == "" {
		return nil
	}
	return json.Unmarshal([]byte(o.CandidatesJSON), &o.Candidates)
}
