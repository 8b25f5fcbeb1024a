package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/eshaffer321/hledger-clear/internal/api/dto"
	"github.com/eshaffer321/hledger-clear/internal/application/reconcile"
	"github.com/eshaffer321/hledger-clear/internal/domain/resolver"
	"github.com/eshaffer321/hledger-clear/internal/domain/writer"
)

// maxRequestBytes bounds the size of a reconcile request body.
const maxRequestBytes = 16 << 20

// Reconciler runs one reconciliation.
type Reconciler interface {
	Run(ctx context.Context, input reconcile.Input, opts reconcile.Options) (*reconcile.Report, error)
}

// ReconcileHandler handles reconcile requests. Every request runs its own
// independent pipeline with a non-interactive policy.
type ReconcileHandler struct {
	*Base
	reconciler Reconciler
	defaults   reconcile.Options
}

// NewReconcileHandler creates a new reconcile handler. defaults supplies
// the parser and matcher settings that requests may override.
func NewReconcileHandler(reconciler Reconciler, defaults reconcile.Options) *ReconcileHandler {
	return &ReconcileHandler{
		Base:       NewBase(nil),
		reconciler: reconciler,
		defaults:   defaults,
	}
}

// Reconcile handles POST /api/reconcile - returns the updated ledger, its
// diff and the run summary. Nothing is written server-side.
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req dto.ReconcileRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("invalid JSON body"))
		return
	}

	opts, err := h.options(req)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, dto.ValidationError(err.Error()))
		return
	}

	input := reconcile.Input{
		LedgerText:    req.Ledger,
		LedgerName:    nonEmpty(req.LedgerName, "ledger"),
		StatementData: []byte(req.Statement),
		StatementName: nonEmpty(req.StatementName, "statement"),
	}

	report, err := h.reconciler.Run(r.Context(), input, opts)
	switch {
	case errors.Is(err, resolver.ErrAborted):
		h.WriteError(w, http.StatusConflict, dto.AbortedError())
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.WriteError(w, http.StatusServiceUnavailable, dto.CancelledError())
		return
	case errors.As(err, new(*writer.WriteError)):
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	case err != nil:
		// Parse and write errors describe the caller's input.
		h.WriteError(w, http.StatusUnprocessableEntity, dto.ValidationError(err.Error()))
		return
	}

	h.WriteJSON(w, http.StatusOK, dto.ReconcileResponse{
		RunKey:  report.RunKey,
		RunID:   report.RunID,
		Ledger:  report.Updated,
		Diff:    report.Diff,
		Changed: report.Changed(),
		Summary: report.Summary,
	})
}

func (h *ReconcileHandler) options(req dto.ReconcileRequest) (reconcile.Options, error) {
	opts := h.defaults

	if req.Ledger == "" {
		return opts, errors.New("ledger is required")
	}
	if req.Statement == "" {
		return opts, errors.New("statement is required")
	}

	if req.Policy == resolver.PolicyInteractive {
		return opts, errors.New("policy interactive is not available over HTTP")
	}
	chooser, ok := resolver.ChooserForPolicy(req.Policy)
	if !ok {
		return opts, fmt.Errorf("unknown policy %q", req.Policy)
	}
	opts.Chooser = chooser
	opts.Policy = nonEmpty(req.Policy, resolver.PolicySkip)
	opts.DryRun = true

	if req.Account != "" {
		opts.Account = req.Account
	}
	if req.DateWindowDays != nil {
		if *req.DateWindowDays < 0 {
			return opts, errors.New("date_window_days must not be negative")
		}
		opts.Matcher.DateWindowDays = *req.DateWindowDays
	}
	if req.InvertSign {
		opts.Statement.InvertSign = true
	}
	if req.Delimiter != "" {
		delim, size := utf8.DecodeRuneInString(req.Delimiter)
		if size != len(req.Delimiter) {
			return opts, errors.New("delimiter must be a single character")
		}
		opts.Statement.Delimiter = delim
	}

	return opts, nil
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
