package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/eshaffer321/hledger-clear/internal/api/dto"
	"github.com/eshaffer321/hledger-clear/internal/infrastructure/storage"
)

// RunsHandler handles run history HTTP requests.
type RunsHandler struct {
	*Base
}

// NewRunsHandler creates a new runs handler.
func NewRunsHandler(repo storage.Repository) *RunsHandler {
	return &RunsHandler{
		Base: NewBase(repo),
	}
}

// List handles GET /api/runs - returns recent runs.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", dto.DefaultRunListParams().Limit)

	runs, err := h.repo.ListRuns(limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RunListResponse{
		Runs:  make([]dto.RunResponse, 0, len(runs)),
		Count: len(runs),
	}
	for _, run := range runs {
		response.Runs = append(response.Runs, toRunResponse(run))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

// Get handles GET /api/runs/{id} - returns a run by numeric ID or run key.
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.WriteJSON(w, http.StatusOK, toRunResponse(*run))
}

// Rows handles GET /api/runs/{id}/rows - returns the per-row outcomes of a run.
func (h *RunsHandler) Rows(w http.ResponseWriter, r *http.Request) {
	run, ok := h.lookup(w, r)
	if !ok {
		return
	}

	outcomes, err := h.repo.ListOutcomes(run.ID)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	response := dto.RowOutcomeListResponse{
		RunID: run.ID,
		Rows:  make([]dto.RowOutcomeResponse, 0, len(outcomes)),
		Count: len(outcomes),
	}
	for _, o := range outcomes {
		response.Rows = append(response.Rows, toRowOutcomeResponse(o))
	}

	h.WriteJSON(w, http.StatusOK, response)
}

func (h *RunsHandler) lookup(w http.ResponseWriter, r *http.Request) (*storage.Run, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("run ID is required"))
		return nil, false
	}

	var run *storage.Run
	var err error
	if id, convErr := strconv.ParseInt(idStr, 10, 64); convErr == nil {
		run, err = h.repo.GetRun(id)
	} else {
		run, err = h.repo.GetRunByKey(idStr)
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.WriteError(w, http.StatusNotFound, dto.NotFoundError("run"))
		return nil, false
	case err != nil:
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return nil, false
	}
	return run, true
}

// toRunResponse converts a storage Run to an API response.
func toRunResponse(run storage.Run) dto.RunResponse {
	response := dto.RunResponse{
		ID:            run.ID,
		RunKey:        run.RunKey,
		LedgerName:    run.LedgerName,
		StatementName: run.StatementName,
		Account:       run.Account,
		Policy:        run.Policy,
		DryRun:        run.DryRun,
		StartedAt:     run.StartedAt.UTC().Format(time.RFC3339),
		Rows:          run.Rows,
		Matched:       run.Matched,
		Chosen:        run.Chosen,
		Unmatched:     run.Unmatched,
		Skipped:       run.Skipped,
		Malformed:     run.Malformed,
		Status:        string(run.Status),
		ErrorMessage:  run.ErrorMessage,
	}
	if run.CompletedAt != nil {
		response.CompletedAt = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	return response
}

func toRowOutcomeResponse(o storage.RowOutcome) dto.RowOutcomeResponse {
	response := dto.RowOutcomeResponse{
		RowIndex:      o.RowIndex,
		Line:          o.Line,
		Date:          o.Date,
		Amount:        o.Amount,
		Description:   o.Description,
		Status:        o.Status,
		TransactionID: o.TransactionID,
		LedgerLine:    o.LedgerLine,
		Candidates:    make([]dto.CandidateResponse, 0, len(o.Candidates)),
	}
	for _, c := range o.Candidates {
		response.Candidates = append(response.Candidates, dto.CandidateResponse{
			TransactionID: c.TransactionID,
			LedgerLine:    c.LedgerLine,
			Date:          c.Date,
			Amount:        c.Amount,
			Description:   c.Description,
			Tier:          c.Tier,
			Similarity:    c.Similarity,
		})
	}
	return response
}
