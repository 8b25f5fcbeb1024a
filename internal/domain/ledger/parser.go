// Package ledger parses hledger-style journal text into transactions.
//
// Only what is needed to match and clear transactions is modeled: the
// header date, status marker, description and posting amounts. Each
// transaction records the byte span of its status marker so the journal
// can be rewritten by substring replacement without re-serializing it.
//
// Example usage:
//
//	journal, err := ledger.Parse(text, ledger.ParseOptions{Account: "assets:checking"})
//	for _, tx := range journal.Uncleared() {
//		fmt.Println(tx.ID, tx.Date, tx.Amount)
//	}
package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parse constructs
const (
	ConstructBadDate      = "bad date"
	ConstructBadAmount    = "bad amount"
	ConstructMissingAmt   = "missing amount"
	ConstructUnterminated = "unterminated transaction"
	ConstructBadYear      = "bad year directive"
	ConstructOrphan       = "indented line outside a transaction"
)

// ParseOptions controls how the matching amount of a transaction is derived.
type ParseOptions struct {
	// Account selects the postings whose sum is the matching amount. Sub-accounts
	// are included. When empty, the last posting's amount is used.
	Account string
}

type parser struct {
	opts        ParseOptions
	text        string
	journal     *Journal
	current     *Transaction
	defaultYear int
	inComment   bool
	inBlock     bool // inside a directive, periodic or automated transaction body
}

// Parse reads journal text into an ordered sequence of transactions.
// The returned Journal keeps text verbatim.
func Parse(text string, opts ParseOptions) (*Journal, error) {
	p := &parser{
		opts:    opts,
		text:    text,
		journal: &Journal{Text: text},
	}

	lineNum := 0
	for pos := 0; pos < len(text); {
		lineNum++
		end := strings.IndexByte(text[pos:], '\n')
		next := len(text)
		if end >= 0 {
			next = pos + end + 1
			end = pos + end
		} else {
			end = len(text)
		}
		line := strings.TrimSuffix(text[pos:end], "\r")

		if err := p.line(lineNum, pos, line); err != nil {
			return nil, err
		}
		pos = next
	}

	if err := p.finish(); err != nil {
		return nil, err
	}
	return p.journal, nil
}

// line dispatches a single journal line starting at byte offset start.
func (p *parser) line(num, start int, line string) error {
	trimmed := strings.TrimSpace(line)

	if p.inComment {
		if trimmed == "end comment" {
			p.inComment = false
		}
		return nil
	}

	if trimmed == "" {
		p.inBlock = false
		return p.finish()
	}

	if line[0] == ' ' || line[0] == '\t' {
		if strings.HasPrefix(trimmed, ";") || strings.HasPrefix(trimmed, "#") {
			return nil
		}
		if p.current == nil {
			if p.inBlock {
				return nil
			}
			return &ParseError{Line: num, Construct: ConstructOrphan, Text: trimmed,
				Err: errors.New("posting is not attached to a transaction; check for a stray blank line")}
		}
		posting, err := parsePosting(num, trimmed)
		if err != nil {
			return err
		}
		p.current.Postings = append(p.current.Postings, posting)
		return nil
	}

	if err := p.finish(); err != nil {
		return err
	}
	if !isCommentLine(line) {
		p.inBlock = false
	}

	switch {
	case line[0] >= '0' && line[0] <= '9':
		return p.header(num, start, line)
	case trimmed == "comment":
		p.inComment = true
	case strings.HasPrefix(line, "Y ") || strings.HasPrefix(line, "year "):
		fields := strings.Fields(line)
		year, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil || len(fields) != 2 {
			return &ParseError{Line: num, Construct: ConstructBadYear, Text: line, Err: err}
		}
		p.defaultYear = year
	case !isCommentLine(line):
		// A directive we do not model; its indented body is skipped.
		p.inBlock = true
	}
	return nil
}

func isCommentLine(line string) bool {
	return strings.ContainsRune(";#*%|", rune(line[0]))
}

// header starts a new transaction from its date line.
func (p *parser) header(num, start int, line string) error {
	dateEnd := strings.IndexAny(line, " \t;")
	if dateEnd < 0 {
		dateEnd = len(line)
	}
	dateTok := line[:dateEnd]

	primary, secondary, hasSecondary := strings.Cut(dateTok, "=")
	date, err := parseDate(primary, p.defaultYear)
	if err != nil {
		return &ParseError{Line: num, Construct: ConstructBadDate, Text: dateTok, Err: err}
	}

	tx := Transaction{
		ID:         len(p.journal.Transactions),
		Line:       num,
		Date:       date,
		StatusSpan: Span{Start: start + dateEnd, End: start + dateEnd},
	}
	if hasSecondary {
		d2, err := parseDate(secondary, date.Year())
		if err != nil {
			return &ParseError{Line: num, Construct: ConstructBadDate, Text: dateTok, Err: err}
		}
		tx.Date2 = &d2
	}

	i := skipBlanks(line, dateEnd)
	if i < len(line) && (line[i] == '*' || line[i] == '!') {
		tx.Status = Pending
		if line[i] == '*' {
			tx.Status = Cleared
		}
		tx.StatusSpan = Span{Start: start + i, End: start + i + 1}
		i = skipBlanks(line, i+1)
	}

	rest := line[i:]
	if strings.HasPrefix(rest, "(") {
		if closing := strings.IndexByte(rest, ')'); closing > 0 {
			tx.Code = rest[1:closing]
			rest = rest[closing+1:]
		}
	}
	if c := strings.IndexByte(rest, ';'); c >= 0 {
		rest = rest[:c]
	}
	tx.Description = strings.TrimSpace(rest)

	p.current = &tx
	return nil
}

// finish closes the open transaction, if any.
func (p *parser) finish() error {
	tx := p.current
	if tx == nil {
		return nil
	}
	p.current = nil

	if len(tx.Postings) == 0 {
		return &ParseError{Line: tx.Line, Construct: ConstructUnterminated, Text: tx.Description,
			Err: errors.New("transaction has no postings")}
	}

	missing := -1
	sum := decimal.Zero
	commodities := map[string]bool{}
	priced := false
	for i, posting := range tx.Postings {
		if !posting.HasAmount {
			if missing >= 0 {
				return &ParseError{Line: posting.Line, Construct: ConstructMissingAmt, Text: posting.Account,
					Err: errors.New("only one posting may omit its amount")}
			}
			missing = i
			continue
		}
		sum = sum.Add(posting.Amount)
		commodities[posting.Commodity] = true
		priced = priced || posting.HasCost
	}
	// Inference across commodities or costs would need prices; such a
	// posting stays without an amount.
	if missing >= 0 && len(commodities) <= 1 && !priced {
		tx.Postings[missing].Amount = sum.Neg()
		tx.Postings[missing].Inferred = true
		for c := range commodities {
			tx.Postings[missing].Commodity = c
		}
	}

	tx.Amount, tx.HasAmount = matchingAmount(tx.Postings, p.opts.Account)
	p.journal.Transactions = append(p.journal.Transactions, *tx)
	return nil
}

// matchingAmount derives the amount compared against statement rows.
func matchingAmount(postings []Posting, account string) (decimal.Decimal, bool) {
	if account == "" {
		last := postings[len(postings)-1]
		return last.Amount, last.known()
	}

	want := strings.ToLower(account)
	sum := decimal.Zero
	found := false
	for _, posting := range postings {
		name := strings.ToLower(posting.Account)
		if name == want || strings.HasPrefix(name, want+":") {
			if !posting.known() {
				return decimal.Zero, false
			}
			sum = sum.Add(posting.Amount)
			found = true
		}
	}
	return sum, found
}

// parsePosting parses a trimmed posting line.
func parsePosting(num int, line string) (Posting, error) {
	if c := strings.IndexByte(line, ';'); c >= 0 {
		line = line[:c]
	}
	line = strings.TrimRight(line, " \t")
	if len(line) > 1 && (line[0] == '*' || line[0] == '!') && (line[1] == ' ' || line[1] == '\t') {
		line = strings.TrimLeft(line[1:], " \t")
	}

	posting := Posting{Line: num}

	account, amountText := line, ""
	if sep := accountEnd(line); sep >= 0 {
		account, amountText = line[:sep], line[sep:]
	}
	posting.Account = strings.Trim(strings.TrimSpace(account), "()[]")

	// Balance assertions and costs do not change the posted amount.
	if c := strings.IndexAny(amountText, "=@"); c >= 0 {
		posting.HasCost = amountText[c] == '@'
		amountText = amountText[:c]
	}
	amountText = strings.TrimSpace(amountText)
	if amountText == "" {
		return posting, nil
	}

	amount, commodity, err := parseAmount(amountText)
	if err != nil {
		return Posting{}, &ParseError{Line: num, Construct: ConstructBadAmount, Text: amountText, Err: err}
	}
	posting.Amount = amount
	posting.Commodity = commodity
	posting.HasAmount = true
	return posting, nil
}

// accountEnd returns the index where the account name ends: the first tab
// or run of two spaces. It returns -1 when the line has no amount part.
func accountEnd(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] == '\t' {
			return i
		}
		if line[i] == ' ' && i+1 < len(line) && line[i+1] == ' ' {
			return i
		}
	}
	return -1
}

// parseAmount parses amounts like "$50.00", "-$1,000", "$-3", "12.5 EUR".
func parseAmount(s string) (decimal.Decimal, string, error) {
	neg := false
	takeSign := func() {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "-") {
			neg = !neg
			s = s[1:]
		} else if strings.HasPrefix(s, "+") {
			s = s[1:]
		}
	}

	takeSign()
	i := 0
	for i < len(s) && !isNumberByte(s[i]) && s[i] != '-' && s[i] != '+' {
		i++
	}
	prefix := strings.TrimSpace(s[:i])
	s = s[i:]
	takeSign()

	j := 0
	for j < len(s) && (isNumberByte(s[j]) || s[j] == ',') {
		j++
	}
	number := s[:j]
	suffix := strings.TrimSpace(s[j:])

	if number == "" {
		return decimal.Zero, "", errors.New("no number")
	}
	if suffix != "" && strings.ContainsRune("0123456789.,-+", rune(suffix[0])) {
		return decimal.Zero, "", fmt.Errorf("unexpected %q after number", suffix)
	}
	if prefix != "" && suffix != "" {
		return decimal.Zero, "", fmt.Errorf("two commodities %q and %q", prefix, suffix)
	}

	value, err := decimal.NewFromString(strings.ReplaceAll(number, ",", ""))
	if err != nil {
		return decimal.Zero, "", err
	}
	if neg {
		value = value.Neg()
	}
	commodity := prefix
	if commodity == "" {
		commodity = suffix
	}
	return value, commodity, nil
}

func isNumberByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.'
}

// parseDate accepts Y-M-D with '-', '/' or '.' separators, and M-D when a
// default year is known.
func parseDate(s string, defaultYear int) (time.Time, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '/' || r == '.'
	})

	var year, month, day int
	var err error
	switch len(parts) {
	case 3:
		if len(parts[0]) != 4 {
			return time.Time{}, fmt.Errorf("year must have four digits")
		}
		year, err = strconv.Atoi(parts[0])
		if err == nil {
			month, err = strconv.Atoi(parts[1])
		}
		if err == nil {
			day, err = strconv.Atoi(parts[2])
		}
	case 2:
		if defaultYear == 0 {
			return time.Time{}, fmt.Errorf("date without year and no year directive")
		}
		year = defaultYear
		month, err = strconv.Atoi(parts[0])
		if err == nil {
			day, err = strconv.Atoi(parts[1])
		}
	default:
		return time.Time{}, fmt.Errorf("unrecognized date %q", s)
	}
	if err != nil {
		return time.Time{}, err
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if date.Year() != year || int(date.Month()) != month || date.Day() != day {
		return time.Time{}, fmt.Errorf("no such day %q", s)
	}
	return date, nil
}

func skipBlanks(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
