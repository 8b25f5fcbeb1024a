package matcher

import (
	"github.com/shopspring/decimal"

	"github.com/eshaffer321/hledger-clear/internal/domain/ledger"
)

// Config holds matcher configuration
type Config struct {
	AmountEpsilon  decimal.Decimal // Default: 0.000001 of a currency unit
	DateWindowDays int             // Days either side of the row date (default: 3)
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		AmountEpsilon:  decimal.New(1, -6),
		DateWindowDays: 3,
	}
}

// Tier is the date-proximity confidence of a candidate. Higher is better.
type Tier int

const (
	TierNearDate Tier = iota + 1
	TierExactDate
)

func (t Tier) String() string {
	switch t {
	case TierExactDate:
		return "exact-date"
	case TierNearDate:
		return "near-date"
	default:
		return "none"
	}
}

// Candidate is a transaction proposed for a statement row
type Candidate struct {
	Transaction ledger.Transaction
	Tier        Tier
	DaysApart   int
	Similarity  float64 // description similarity, 0-1
}
