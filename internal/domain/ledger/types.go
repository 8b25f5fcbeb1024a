package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the clearing state of a transaction.
type Status int

const (
	Unmarked Status = iota
	Pending
	Cleared
)

// String returns a readable name for the status.
func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Cleared:
		return "cleared"
	default:
		return "unmarked"
	}
}

// Marker returns the journal symbol for the status ("" when unmarked).
func (s Status) Marker() string {
	switch s {
	case Pending:
		return "!"
	case Cleared:
		return "*"
	default:
		return ""
	}
}

// Span is a byte range [Start, End) inside Journal.Text.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether the span is a zero-width insertion point.
func (s Span) Empty() bool { return s.Start == s.End }

// Posting is one indented account line of a transaction.
type Posting struct {
	Line      int
	Account   string
	Amount    decimal.Decimal
	Commodity string
	HasAmount bool // amount written in the journal
	Inferred  bool // amount inferred from the other postings
	HasCost   bool // written with an @ or @@ cost
}

// known reports whether the posting has an amount, written or inferred.
func (p Posting) known() bool {
	return p.HasAmount || p.Inferred
}

// Transaction holds the fields of a journal entry needed to match and clear it.
type Transaction struct {
	ID          int
	Line        int
	Date        time.Time
	Date2       *time.Time
	Status      Status
	Code        string
	Description string
	Postings    []Posting

	// Amount is the signed amount compared against statement rows.
	// HasAmount is false when no posting matched the reconciled account or a
	// matched posting has no known amount.
	Amount    decimal.Decimal
	HasAmount bool

	// StatusSpan covers the status marker on the header line, or is the
	// zero-width position right after the date token when unmarked.
	StatusSpan Span
}

// Cleared reports whether the transaction is already marked cleared.
func (t Transaction) Cleared() bool {
	return t.Status == Cleared
}

// String renders a one-line summary used in prompts and logs.
func (t Transaction) String() string {
	amount := "?"
	if t.HasAmount {
		amount = t.Amount.StringFixed(2)
	}
	return fmt.Sprintf("%s %s %s", t.Date.Format("2006-01-02"), amount, t.Description)
}

// Journal is a parsed journal together with the verbatim text it came from.
type Journal struct {
	Text         string
	Transactions []Transaction
}

// Transaction returns the transaction with the given id.
func (j *Journal) Transaction(id int) (Transaction, bool) {
	if id < 0 || id >= len(j.Transactions) {
		return Transaction{}, false
	}
	return j.Transactions[id], true
}

// Uncleared returns the transactions that are not yet marked cleared.
func (j *Journal) Uncleared() []Transaction {
	out := make([]Transaction, 0, len(j.Transactions))
	for _, tx := range j.Transactions {
		if !tx.Cleared() {
			out = append(out, tx)
		}
	}
	return out
}

// ParseError reports a malformed construct in the journal.
type ParseError struct {
	Line      int
	Construct string
	Text      string
	Err       error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("ledger line %d: %s", e.Line, e.Construct)
	if e.Text != "" {
		msg += fmt.Sprintf(" in %q", e.Text)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
