package resolver

import (
	"context"
	"errors"

	"github.com/eshaffer321/hledger-clear/internal/domain/matcher"
	"github.com/eshaffer321/hledger-clear/internal/domain/statement"
)

// ErrAborted is returned when the chooser aborts the run.
var ErrAborted = errors.New("reconciliation aborted")

// CandidateFinder returns the ranked candidates for a row, excluding claimed ids.
type CandidateFinder interface {
	FindCandidates(row statement.Row, claimed map[int]bool) []matcher.Candidate
}

// Chooser decides between several equally ranked candidates.
// Choose blocks until a decision is made.
type Chooser interface {
	Choose(ctx context.Context, prompt Prompt) (Decision, error)
}

// ChooserFunc adapts a function to the Chooser interface.
type ChooserFunc func(ctx context.Context, prompt Prompt) (Decision, error)

// Choose calls f(ctx, prompt).
func (f ChooserFunc) Choose(ctx context.Context, prompt Prompt) (Decision, error) {
	return f(ctx, prompt)
}

// Prompt is what a chooser sees for an ambiguous row.
type Prompt struct {
	Row        statement.Row
	Candidates []matcher.Candidate // all candidates, ranked
	TopCount   int                 // leading candidates sharing the best tier
}

// Top returns the candidates of the best tier.
func (p Prompt) Top() []matcher.Candidate {
	return p.Candidates[:p.TopCount]
}

// Action is a chooser's answer.
type Action int

const (
	Skip Action = iota
	Accept
	Abort
)

func (a Action) String() string {
	switch a {
	case Accept:
		return "accept"
	case Abort:
		return "abort"
	default:
		return "skip"
	}
}

// Decision is the chooser's answer for one prompt. Candidate is only
// meaningful with Accept.
type Decision struct {
	Action    Action
	Candidate matcher.Candidate
}

// AcceptCandidate returns a decision accepting c.
func AcceptCandidate(c matcher.Candidate) Decision {
	return Decision{Action: Accept, Candidate: c}
}

// Status is the outcome of resolving one row.
type Status string

const (
	StatusMatched   Status = "matched"   // unique top-tier candidate, accepted automatically
	StatusChosen    Status = "chosen"    // ambiguous, accepted by the chooser
	StatusUnmatched Status = "unmatched" // no candidate
	StatusSkipped   Status = "skipped"   // ambiguous, skipped by the chooser
)

// Outcome records how one row was resolved.
type Outcome struct {
	Row           statement.Row
	Status        Status
	TransactionID int // -1 unless accepted
	Candidates    []matcher.Candidate
}

// Accepted reports whether the row was mapped to a transaction.
func (o Outcome) Accepted() bool {
	return o.Status == StatusMatched || o.Status == StatusChosen
}

// Result maps every row, in input order, to its outcome.
type Result struct {
	Outcomes []Outcome
}

// Accepted returns the accepted transaction ids in row order.
func (r *Result) Accepted() []int {
	var ids []int
	for _, o := range r.Outcomes {
		if o.Accepted() {
			ids = append(ids, o.TransactionID)
		}
	}
	return ids
}

// Count returns the number of outcomes with the given status.
func (r *Result) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}
