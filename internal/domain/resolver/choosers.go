package resolver

import "context"

// Non-interactive policies for ambiguous rows.
var (
	// SkipAll leaves every ambiguous row unmatched.
	SkipAll Chooser = ChooserFunc(func(context.Context, Prompt) (Decision, error) {
		return Decision{Action: Skip}, nil
	})

	// AcceptFirst accepts the best ranked candidate.
	AcceptFirst Chooser = ChooserFunc(func(_ context.Context, p Prompt) (Decision, error) {
		return AcceptCandidate(p.Candidates[0]), nil
	})

	// AbortOnAmbiguity aborts the run at the first ambiguous row.
	AbortOnAmbiguity Chooser = ChooserFunc(func(context.Context, Prompt) (Decision, error) {
		return Decision{Action: Abort}, nil
	})
)

// Policy names accepted by ChooserForPolicy.
const (
	PolicyInteractive = "interactive"
	PolicySkip        = "skip"
	PolicyFirst       = "first"
	PolicyAbort       = "abort"
)

// ChooserForPolicy returns the non-interactive chooser for a policy name.
func ChooserForPolicy(policy string) (Chooser, bool) {
	switch policy {
	case PolicySkip, "":
		return SkipAll, true
	case PolicyFirst:
		return AcceptFirst, true
	case PolicyAbort:
		return AbortOnAmbiguity, true
	default:
		return nil, false
	}
}
