package engine

import (
	"sort"
	"time"
)

// AllocationEntry is the cost basis held in one symbol at final state.
type AllocationEntry struct {
	Name       string  `json:"name"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage,omitempty"`
}

// Allocate replays the ledger to its final state and emits one entry per
// symbol with shares > 0, sorted by name.
func Allocate(l Ledger, opts Options) ([]AllocationEntry, error) {
	acc, err := Replay(l, opts)
	if err != nil {
		return nil, err
	}
	return allocationOf(acc), nil
}

// AllocateWindow is Allocate over the same window DailySeries uses.
func AllocateWindow(l Ledger, start, today time.Time, opts Options) ([]AllocationEntry, error) {
	return Allocate(l.Window(start, today), opts)
}

func allocationOf(acc *Accumulator) []AllocationEntry {
	entries := make([]AllocationEntry, 0)
	for _, sym := range acc.Symbols() {
		h := acc.Holding(sym)
		if !h.Shares.IsPositive() {
			continue
		}
		entries = append(entries, AllocationEntry{Name: sym, Value: h.CostBasis().InexactFloat64()})
	}
	return entries
}

// Weights returns a copy of entries with Percentage set to each entry's
// share of the total value.
func Weights(entries []AllocationEntry) []AllocationEntry {
	out := make([]AllocationEntry, len(entries))
	copy(out, entries)

	total := 0.0
	for _, e := range out {
		total += e.Value
	}
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i].Percentage = out[i].Value / total * 100
	}
	return out
}

// Concentration summarizes how spread out an allocation is.
type Concentration struct {
	// Herfindahl is Σ wᵢ² over value weights, 1 for a single position.
	Herfindahl float64 `json:"herfindahl_index"`
	// Diversification is 1 − Herfindahl.
	Diversification float64 `json:"diversification_ratio"`
	Positions       int     `json:"positions"`
	Largest         string  `json:"largest_position,omitempty"`
}

// Concentrate computes the Herfindahl concentration of an allocation.
// An empty allocation yields the zero value.
func Concentrate(entries []AllocationEntry) Concentration {
	total := 0.0
	for _, e := range entries {
		total += e.Value
	}
	if total <= 0 {
		return Concentration{}
	}

	c := Concentration{Positions: len(entries)}
	largest := -1.0
	hhi := 0.0
	for _, e := range entries {
		w := e.Value / total
		hhi += w * w
		if e.Value > largest {
			largest, c.Largest = e.Value, e.Name
		}
	}
	c.Herfindahl = hhi
	c.Diversification = 1 - hhi
	return c
}

// SortByValue orders entries by descending value, name breaking ties.
func SortByValue(entries []AllocationEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Name < entries[j].Name
	})
}
