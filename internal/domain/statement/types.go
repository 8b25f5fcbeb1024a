package statement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one cleared activity line from a statement export.
type Row struct {
	Index       int // 0-based position among parsed rows
	Line        int // 1-based record number in the input
	Date        time.Time
	Amount      decimal.Decimal
	Description string
}

// String renders a one-line summary used in prompts and reports.
func (r Row) String() string {
	return fmt.Sprintf("%s %s %s", r.Date.Format("2006-01-02"), r.Amount.StringFixed(2), r.Description)
}

// Statement is the parsed statement: accepted rows in input order plus the
// malformed rows that were skipped.
type Statement struct {
	Rows    []Row
	Skipped []*ParseError
}

// Columns maps logical fields to header names (or 1-based column numbers
// when the input has no header).
type Columns struct {
	Date        string `yaml:"date"`
	Amount      string `yaml:"amount"`
	Description string `yaml:"description"`
	Debit       string `yaml:"debit"`
	Credit      string `yaml:"credit"`
}

// Config holds statement parsing configuration
type Config struct {
	Delimiter   rune
	Header      bool
	Columns     Columns
	DateFormats []string
	InvertSign  bool // flip amounts, e.g. card exports listing purchases as positive
	Strict      bool // fail on the first malformed row instead of skipping it
}

// DefaultDateFormats are unambiguous layouts tried in order.
var DefaultDateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-1-2",
	"2006/1/2",
	"2 Jan 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Delimiter: ',',
		Header:    true,
		Columns: Columns{
			Date:        "date",
			Amount:      "amount",
			Description: "description",
		},
		DateFormats: DefaultDateFormats,
	}
}

// ParseError reports a missing column or a row that could not be parsed.
type ParseError struct {
	Line   int
	Column string
	Text   string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("statement: %s: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("statement record %d: %s %q: %v", e.Line, e.Column, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
