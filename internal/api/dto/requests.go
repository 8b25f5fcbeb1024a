package dto

// ReconcileRequest is the body of POST /api/reconcile.
type ReconcileRequest struct {
	Ledger         string `json:"ledger"`
	Statement      string `json:"statement"`
	LedgerName     string `json:"ledger_name,omitempty"`
	StatementName  string `json:"statement_name,omitempty"`
	Account        string `json:"account,omitempty"`
	Policy         string `json:"policy,omitempty"` // skip (default), first or abort
	DateWindowDays *int   `json:"date_window_days,omitempty"`
	InvertSign     bool   `json:"invert_sign,omitempty"`
	Delimiter      string `json:"delimiter,omitempty"`
}

// RunListParams represents query parameters for listing runs.
type RunListParams struct {
	Limit int `json:"limit"`
}

// DefaultRunListParams returns default values for run list params.
func DefaultRunListParams() RunListParams {
	return RunListParams{
		Limit: 20,
	}
}
