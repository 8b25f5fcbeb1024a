// Package statement parses delimited statement exports (bank or card CSV
// files) into ordered rows of date, amount and description.
//
// Header rows are located by column name, ignoring case and surrounding
// whitespace, so preamble lines some banks emit are tolerated. Malformed
// rows are skipped and reported unless Config.Strict is set.
package statement

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrAmbiguousYear is returned for two-digit years, which are never guessed.
	ErrAmbiguousYear = errors.New("ambiguous two-digit year")
	// ErrMissingColumn is returned when a required column cannot be located.
	ErrMissingColumn = errors.New("missing column")
)

var twoDigitYear = regexp.MustCompile(`^\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2}$`)

type columnIndex struct {
	date, amount, description, debit, credit int
}

// Parse reads a statement export into rows.
func Parse(r io.Reader, cfg Config) (*Statement, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.Comma = cfg.Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var idx *columnIndex
	if !cfg.Header {
		numbered, err := cfg.Columns.numbered()
		if err != nil {
			return nil, err
		}
		idx = numbered
	}

	st := &Statement{}
	missing := cfg.Columns.Date
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var csvErr *csv.ParseError
			if !errors.As(err, &csvErr) || idx == nil || cfg.Strict {
				return nil, fmt.Errorf("read statement: %w", err)
			}
			st.Skipped = append(st.Skipped, &ParseError{Line: csvErr.Line, Column: "record", Err: csvErr.Err})
			continue
		}
		line, _ := reader.FieldPos(0)

		if idx == nil {
			idx, missing = cfg.Columns.locate(record, missing)
			continue
		}

		if blank(record) {
			continue
		}

		row, perr := parseRow(record, idx, cfg, line)
		if perr != nil {
			if cfg.Strict {
				return nil, perr
			}
			st.Skipped = append(st.Skipped, perr)
			continue
		}
		row.Index = len(st.Rows)
		st.Rows = append(st.Rows, row)
	}

	if idx == nil {
		return nil, &ParseError{Column: missing, Err: ErrMissingColumn}
	}
	return st, nil
}

func parseRow(record []string, idx *columnIndex, cfg Config, line int) (Row, *ParseError) {
	row := Row{Line: line}

	rawDate, ok := field(record, idx.date)
	if !ok {
		return Row{}, &ParseError{Line: line, Column: cfg.Columns.Date, Err: ErrMissingColumn}
	}
	date, err := parseDate(rawDate, cfg.DateFormats)
	if err != nil {
		return Row{}, &ParseError{Line: line, Column: cfg.Columns.Date, Text: rawDate, Err: err}
	}
	row.Date = date

	amount, column, text, err := rowAmount(record, idx, cfg.Columns)
	if err != nil {
		return Row{}, &ParseError{Line: line, Column: column, Text: text, Err: err}
	}
	if cfg.InvertSign {
		amount = amount.Neg()
	}
	row.Amount = amount

	if description, ok := field(record, idx.description); ok {
		row.Description = description
	}
	return row, nil
}

// rowAmount reads the single amount column, or credit minus debit.
func rowAmount(record []string, idx *columnIndex, cols Columns) (decimal.Decimal, string, string, error) {
	if idx.amount >= 0 {
		raw, ok := field(record, idx.amount)
		if !ok {
			return decimal.Zero, cols.Amount, "", ErrMissingColumn
		}
		amount, err := parseAmount(raw)
		return amount, cols.Amount, raw, err
	}

	debit, _ := field(record, idx.debit)
	credit, _ := field(record, idx.credit)
	if debit == "" && credit == "" {
		return decimal.Zero, cols.Debit, "", errors.New("empty debit and credit")
	}

	total := decimal.Zero
	if credit != "" {
		c, err := parseAmount(credit)
		if err != nil {
			return decimal.Zero, cols.Credit, credit, err
		}
		total = total.Add(c.Abs())
	}
	if debit != "" {
		d, err := parseAmount(debit)
		if err != nil {
			return decimal.Zero, cols.Debit, debit, err
		}
		total = total.Sub(d.Abs())
	}
	return total, cols.Amount, "", nil
}

// parseAmount accepts "1,234.56", "$-12", "-$12", "(12.00)" and "12.00-".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		neg = !neg
		s = strings.TrimSuffix(s, "-")
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', '€', '£', '¥', ',', ' ', '\u00a0':
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(s, "+")
	if s == "" {
		return decimal.Zero, errors.New("empty amount")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount: %w", err)
	}
	if neg {
		amount = amount.Neg()
	}
	return amount, nil
}

func parseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if twoDigitYear.MatchString(s) {
		return time.Time{}, ErrAmbiguousYear
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date, tried %s", strings.Join(layouts, ", "))
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.Delimiter == 0 {
		cfg.Delimiter = def.Delimiter
	}
	if cfg.Columns.Date == "" {
		cfg.Columns.Date = def.Columns.Date
	}
	if cfg.Columns.Amount == "" && cfg.Columns.Debit == "" && cfg.Columns.Credit == "" {
		cfg.Columns.Amount = def.Columns.Amount
	}
	if cfg.Columns.Description == "" && cfg.Header {
		cfg.Columns.Description = def.Columns.Description
	}
	if len(cfg.DateFormats) == 0 {
		cfg.DateFormats = def.DateFormats
	}
	return cfg
}

func (cfg Config) validate() error {
	for _, layout := range cfg.DateFormats {
		if strings.Contains(strings.ReplaceAll(layout, "2006", ""), "06") {
			return fmt.Errorf("date format %q: %w", layout, ErrAmbiguousYear)
		}
	}
	return nil
}

// locate finds the configured columns in a candidate header record. When
// the record is not a header it returns nil and the name of a required
// column it lacks.
func (c Columns) locate(record []string, missing string) (*columnIndex, string) {
	positions := make(map[string]int, len(record))
	for i, name := range record {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}
	lookup := func(name string) int {
		if name == "" {
			return -1
		}
		if i, ok := positions[strings.ToLower(strings.TrimSpace(name))]; ok {
			return i
		}
		return -1
	}

	idx := &columnIndex{
		date:        lookup(c.Date),
		amount:      lookup(c.Amount),
		description: lookup(c.Description),
		debit:       lookup(c.Debit),
		credit:      lookup(c.Credit),
	}

	hasAmount := idx.amount >= 0 || idx.debit >= 0 || idx.credit >= 0
	switch {
	case idx.date >= 0 && hasAmount:
		return idx, ""
	case idx.date >= 0:
		return nil, c.amountName()
	case hasAmount:
		return nil, c.Date
	}
	return nil, missing
}

func (c Columns) amountName() string {
	if c.Amount != "" {
		return c.Amount
	}
	return c.Debit + "/" + c.Credit
}

// numbered interprets column names as 1-based column numbers.
func (c Columns) numbered() (*columnIndex, error) {
	number := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(name))
		if err != nil || n < 1 {
			return -1, fmt.Errorf("column %q must be a 1-based number without a header row", name)
		}
		return n - 1, nil
	}

	idx := &columnIndex{}
	var err error
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{c.Date, &idx.date},
		{c.Amount, &idx.amount},
		{c.Description, &idx.description},
		{c.Debit, &idx.debit},
		{c.Credit, &idx.credit},
	} {
		if *f.dst, err = number(f.name); err != nil {
			return nil, err
		}
	}
	if idx.date < 0 {
		return nil, &ParseError{Column: "date", Err: ErrMissingColumn}
	}
	if idx.amount < 0 && idx.debit < 0 && idx.credit < 0 {
		return nil, &ParseError{Column: "amount", Err: ErrMissingColumn}
	}
	return idx, nil
}

func field(record []string, i int) (string, bool) {
	if i < 0 || i >= len(record) {
		return "", false
	}
	return strings.TrimSpace(record[i]), true
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
