package dto

import (
	"time"

	"github.com/eshaffer321/hledger-clear/internal/application/reconcile"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// RunResponse represents a reconcile run in API responses.
type RunResponse struct {
	ID            int64  `json:"id"`
	RunKey        string `json:"run_key"`
	LedgerName    string `json:"ledger_name"`
	StatementName string `json:"statement_name"`
	Account       string `json:"account,omitempty"`
	Policy        string `json:"policy"`
	DryRun        bool   `json:"dry_run"`
	StartedAt     string `json:"started_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
	Rows          int    `json:"rows"`
	Matched       int    `json:"matched"`
	Chosen        int    `json:"chosen"`
	Unmatched     int    `json:"unmatched"`
	Skipped       int    `json:"skipped"`
	Malformed     int    `json:"malformed"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

// RunListResponse is returned when listing runs.
type RunListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Count int           `json:"count"`
}

// CandidateResponse is a candidate offered for a row.
type CandidateResponse struct {
	TransactionID int     `json:"transaction_id"`
	LedgerLine    int     `json:"ledger_line"`
	Date          string  `json:"date"`
	Amount        string  `json:"amount"`
	Description   string  `json:"description"`
	Tier          string  `json:"tier"`
	Similarity    float64 `json:"similarity"`
}

// RowOutcomeResponse is how one statement row was resolved.
type RowOutcomeResponse struct {
	RowIndex      int                 `json:"row_index"`
	Line          int                 `json:"line"`
	Date          string              `json:"date"`
	Amount        string              `json:"amount"`
	Description   string              `json:"description"`
	Status        string              `json:"status"`
	TransactionID *int                `json:"transaction_id,omitempty"`
	LedgerLine    int                 `json:"ledger_line,omitempty"`
	Candidates    []CandidateResponse `json:"candidates"`
}

// RowOutcomeListResponse is returned when listing the rows of a run.
type RowOutcomeListResponse struct {
	RunID int64                `json:"run_id"`
	Rows  []RowOutcomeResponse `json:"rows"`
	Count int                  `json:"count"`
}

// ReconcileResponse is returned by POST /api/reconcile.
type ReconcileResponse struct {
	RunKey  string            `json:"run_key"`
	RunID   int64             `json:"run_id,omitempty"`
	Ledger  string            `json:"ledger"`
	Diff    string            `json:"diff"`
	Changed bool              `json:"changed"`
	Summary reconcile.Summary `json:"summary"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
