// Package writer marks accepted transactions cleared by substituting their
// status spans in the original journal text. Nothing outside the spans is
// touched.
package writer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
)

// WriteError reports a span that cannot be substituted safely.
type WriteError struct {
	TransactionID int
	Span          ledger.Span
	Reason        string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write transaction %d at [%d,%d): %s",
		e.TransactionID, e.Span.Start, e.Span.End, e.Reason)
}

type edit struct {
	id          int
	span        ledger.Span
	replacement string
}

// Apply returns journal.Text with every accepted transaction marked cleared.
// Already cleared transactions are left as they are. The input text is
// returned unchanged when there is nothing to do.
func Apply(journal *ledger.Journal, accepted []int) (string, error) {
	edits, err := plan(journal, accepted)
	if err != nil {
		return "", err
	}
	if len(edits) == 0 {
		return journal.Text, nil
	}

	text := journal.Text
	var b strings.Builder
	b.Grow(len(text) + 2*len(edits))

	last := 0
	for _, e := range edits {
		b.WriteString(text[last:e.span.Start])
		b.WriteString(e.replacement)
		last = e.span.End
	}
	b.WriteString(text[last:])

	return b.String(), nil
}

func plan(journal *ledger.Journal, accepted []int) ([]edit, error) {
	seen := make(map[int]bool, len(accepted))
	edits := make([]edit, 0, len(accepted))

	for _, id := range accepted {
		tx, ok := journal.Transaction(id)
		if !ok {
			return nil, &WriteError{TransactionID: id, Reason: "unknown transaction"}
		}
		if seen[id] {
			return nil, &WriteError{TransactionID: id, Span: tx.StatusSpan, Reason: "accepted twice"}
		}
		seen[id] = true

		if tx.Cleared() {
			continue
		}
		e, err := editFor(journal.Text, tx)
		if err != nil {
			return nil, err
		}
		edits = append(edits, e)
	}

	sort.Slice(edits, func(i, j int) bool {
		return edits[i].span.Start < edits[j].span.Start
	})
	for i := 1; i < len(edits); i++ {
		prev, cur := edits[i-1], edits[i]
		if cur.span.Start < prev.span.End || cur.span.Start == prev.span.Start {
			return nil, &WriteError{TransactionID: cur.id, Span: cur.span,
				Reason: fmt.Sprintf("overlaps span of transaction %d", prev.id)}
		}
	}

	return edits, nil
}

// editFor checks that the span still holds what the parser saw and
// returns the substitution that clears the transaction.
func editFor(text string, tx ledger.Transaction) (edit, error) {
	span := tx.StatusSpan
	fail := func(reason string) (edit, error) {
		return edit{}, &WriteError{TransactionID: tx.ID, Span: span, Reason: reason}
	}

	if span.Start < 0 || span.End > len(text) || span.Start > span.End {
		return fail("span out of range")
	}

	switch tx.Status {
	case ledger.Pending:
		if text[span.Start:span.End] != ledger.Pending.Marker() {
			return fail(fmt.Sprintf("stale span: expected %q, found %q",
				ledger.Pending.Marker(), text[span.Start:span.End]))
		}
		return edit{id: tx.ID, span: span, replacement: ledger.Cleared.Marker()}, nil
	case ledger.Unmarked:
		if !span.Empty() {
			return fail("stale span: unmarked transaction with non-empty span")
		}
		if span.Start == 0 || !atDateEnd(text, span.Start) {
			return fail("stale span: not at the end of a date")
		}
		return edit{id: tx.ID, span: span, replacement: " " + ledger.Cleared.Marker()}, nil
	default:
		return fail("unexpected status " + tx.Status.String())
	}
}

// atDateEnd reports whether pos sits right after a date token.
func atDateEnd(text string, pos int) bool {
	prev := text[pos-1]
	if prev < '0' || prev > '9' {
		return false
	}
	if pos == len(text) {
		return true
	}
	switch text[pos] {
	case ' ', '\t', '\r', '\n', ';':
		return true
	}
	return false
}

// Diff renders a unified diff between two versions of a journal.
func Diff(name, before, after string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: name,
		ToFile:   name + " (cleared)",
		Context:  1,
	}
	return difflib.GetUnifiedDiffString(diff)
}
