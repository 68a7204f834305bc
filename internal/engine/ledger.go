package engine

import (
	"sort"
	"time"
)

// Ledger is an ordered list of validated transactions: ascending by date,
// input order breaking ties.
type Ledger struct {
	txs []Transaction
}

// Normalize validates raw records into a Ledger. Invalid records are skipped
// and reported, never fatal. The source slice is not modified.
func Normalize(records []Record) (Ledger, []Rejection) {
	txs := make([]Transaction, 0, len(records))
	var rejected []Rejection

	for i, r := range records {
		tx, reason := normalizeRecord(r)
		if reason != "" {
			rejected = append(rejected, Rejection{Index: i, ID: r.ID, Reason: reason})
			continue
		}
		txs = append(txs, tx)
	}

	// same-day ordering decides average cost, so the sort must be stable
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
	return Ledger{txs: txs}, rejected
}

// Len returns the number of transactions in the ledger.
func (l Ledger) Len() int { return len(l.txs) }

// Transactions returns a copy of the ordered transactions.
func (l Ledger) Transactions() []Transaction {
	out := make([]Transaction, len(l.txs))
	copy(out, l.txs)
	return out
}

// Window keeps transactions dated start <= date <= end, compared as calendar dates.
func (l Ledger) Window(start, end time.Time) Ledger {
	from, to := CalendarDate(start), CalendarDate(end)
	kept := make([]Transaction, 0, len(l.txs))
	for _, tx := range l.txs {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		kept = append(kept, tx)
	}
	return Ledger{txs: kept}
}

// ByDate buckets transactions by calendar date, keeping ledger order
// within each bucket.
func (l Ledger) ByDate() map[string][]Transaction {
	buckets := make(map[string][]Transaction)
	for _, tx := range l.txs {
		key := tx.Date.Format(DateLayout)
		buckets[key] = append(buckets[key], tx)
	}
	return buckets
}
