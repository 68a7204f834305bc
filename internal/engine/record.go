// Package engine reconstructs cost-basis valuation history and allocation
// from a list of buy/sell transactions. Everything here is a pure function of
// its inputs: no I/O, no clocks, no state kept between calls.
package engine

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used on output.
const DateLayout = "2006-01-02"

// Record is a raw transaction as handed to the engine by a caller.
// Numeric fields are pointers so a missing value is distinguishable from 0.
type Record struct {
	ID              string           `json:"id"`
	PortfolioID     string           `json:"portfolio_id"`
	Symbol          string           `json:"symbol"`
	Type            string           `json:"type"`
	Shares          *decimal.Decimal `json:"shares"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	TotalAmount     *decimal.Decimal `json:"total_amount"`
	Fees            *decimal.Decimal `json:"fees,omitempty"`
	TransactionDate string           `json:"transaction_date"`
	Note            string           `json:"note,omitempty"`
	CreatedAt       string           `json:"created_at,omitempty"`
}

// Side is the direction of a replayable transaction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Transaction is a validated record ready for replay.
type Transaction struct {
	ID          string
	Symbol      string
	Side        Side
	Shares      decimal.Decimal
	TotalAmount decimal.Decimal
	// Date is the calendar date at UTC midnight.
	Date time.Time
}

// Rejection explains why a record was left out of the computation.
type Rejection struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// Fractional seconds are accepted after the seconds field without being
// spelled out in a layout.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	DateLayout,
}

// ParseDate extracts the calendar date written in a timestamp string.
// The offset, if any, is not applied: "2024-03-01T23:30:00-05:00" is March 1.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CalendarDate(t), true
		}
	}
	return time.Time{}, false
}

// CalendarDate drops the clock part of t, keeping the date in t's own location.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func normalizeRecord(r Record) (Transaction, string) {
	date, ok := ParseDate(r.TransactionDate)
	if !ok {
		return Transaction{}, "unparsable transaction_date"
	}

	symbol := strings.ToUpper(strings.TrimSpace(r.Symbol))
	if symbol == "" {
		return Transaction{}, "missing symbol"
	}

	side := Side(strings.ToUpper(strings.TrimSpace(r.Type)))
	if side != Buy && side != Sell {
		return Transaction{}, "unsupported type " + r.Type
	}

	if r.Shares == nil {
		return Transaction{}, "missing shares"
	}
	if !r.Shares.IsPositive() {
		return Transaction{}, "shares must be positive"
	}
	if r.TotalAmount == nil {
		return Transaction{}, "missing total_amount"
	}

	return Transaction{
		ID:          r.ID,
		Symbol:      symbol,
		Side:        side,
		Shares:      *r.Shares,
		TotalAmount: *r.TotalAmount,
		Date:        date,
	}, ""
}
