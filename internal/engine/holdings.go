package engine

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrOversell is returned in strict mode when a SELL exceeds held shares.
var ErrOversell = errors.New("sell exceeds held shares")

// OversellError carries the offending transaction.
type OversellError struct {
	TransactionID string
	Symbol        string
	Date          time.Time
	Held          decimal.Decimal
	Requested     decimal.Decimal
}

func (e *OversellError) Error() string {
	return fmt.Sprintf("%s: selling %s %s on %s with %s held",
		ErrOversell, e.Requested, e.Symbol, e.Date.Format(DateLayout), e.Held)
}

func (e *OversellError) Unwrap() error { return ErrOversell }

// Options tune a replay.
type Options struct {
	// StrictOversell rejects a SELL of more shares than are held.
	// Off by default: the resulting negative position flows into valuation.
	StrictOversell bool
}

// Holding is the replayed position in one symbol.
type Holding struct {
	Shares  decimal.Decimal `json:"shares"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// CostBasis is shares × average cost.
func (h Holding) CostBasis() decimal.Decimal {
	return h.Shares.Mul(h.AvgCost)
}

// Accumulator replays transactions into weighted-average-cost holdings.
// Each update replaces the symbol's Holding value; nothing is mutated in place.
type Accumulator struct {
	opts     Options
	holdings map[string]Holding
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator(opts Options) *Accumulator {
	return &Accumulator{opts: opts, holdings: make(map[string]Holding)}
}

// Apply replays one transaction.
func (a *Accumulator) Apply(tx Transaction) error {
	cur := a.holdings[tx.Symbol]

	switch tx.Side {
	case Buy:
		shares := cur.Shares.Add(tx.Shares)
		if !shares.IsPositive() {
			a.holdings[tx.Symbol] = Holding{Shares: shares, AvgCost: decimal.Zero}
			return nil
		}
		cost := cur.Shares.Mul(cur.AvgCost).Add(tx.TotalAmount)
		a.holdings[tx.Symbol] = Holding{Shares: shares, AvgCost: cost.Div(shares)}

	case Sell:
		if err := a.checkOversell(cur, tx); err != nil {
			return err
		}
		shares := cur.Shares.Sub(tx.Shares)
		avg := cur.AvgCost
		if !shares.IsPositive() {
			avg = decimal.Zero
		}
		a.holdings[tx.Symbol] = Holding{Shares: shares, AvgCost: avg}

	default:
		return fmt.Errorf("unsupported side %q", tx.Side)
	}
	return nil
}

// checkOversell is the only place oversell policy lives.
func (a *Accumulator) checkOversell(cur Holding, tx Transaction) error {
	if !a.opts.StrictOversell || tx.Shares.LessThanOrEqual(cur.Shares) {
		return nil
	}
	return &OversellError{
		TransactionID: tx.ID,
		Symbol:        tx.Symbol,
		Date:          tx.Date,
		Held:          cur.Shares,
		Requested:     tx.Shares,
	}
}

// Holding returns the current position in symbol (zero if never traded).
func (a *Accumulator) Holding(symbol string) Holding {
	return a.holdings[symbol]
}

// Holdings returns a copy of every position, including closed and negative ones.
func (a *Accumulator) Holdings() map[string]Holding {
	out := make(map[string]Holding, len(a.holdings))
	for sym, h := range a.holdings {
		out[sym] = h
	}
	return out
}

// Symbols returns traded symbols in lexical order.
func (a *Accumulator) Symbols() []string {
	syms := make([]string, 0, len(a.holdings))
	for sym := range a.holdings {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

// Total is Σ shares × avgCost over every symbol. Decimal addition is exact,
// so the result does not depend on map iteration order.
func (a *Accumulator) Total() decimal.Decimal {
	total := decimal.Zero
	for _, h := range a.holdings {
		total = total.Add(h.CostBasis())
	}
	return total
}

// Replay applies every transaction of the ledger in order.
func Replay(l Ledger, opts Options) (*Accumulator, error) {
	acc := NewAccumulator(opts)
	for _, tx := range l.txs {
		if err := acc.Apply(tx); err != nil {
			return nil, err
		}
	}
	return acc, nil
}
