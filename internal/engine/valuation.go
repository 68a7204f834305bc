package engine

import "time"

// Valuation bundles one full engine run.
type Valuation struct {
	Timeframe     Timeframe         `json:"timeframe"`
	StartDate     string            `json:"start_date"`
	EndDate       string            `json:"end_date"`
	Series        []ValuePoint      `json:"series"`
	Allocation    []AllocationEntry `json:"allocation"`
	Concentration Concentration     `json:"concentration"`
	Rejected      []Rejection       `json:"rejected,omitempty"`
}

// Valuate normalizes records and produces the series and allocation for the
// timeframe ending on today. Both replay the same window.
func Valuate(records []Record, timeframe string, today time.Time, opts Options) (*Valuation, error) {
	ledger, rejected := Normalize(records)
	return ValuateLedger(ledger, ParseTimeframe(timeframe), today, opts, rejected)
}

// ValuateLedger is Valuate for an already normalized ledger.
func ValuateLedger(l Ledger, tf Timeframe, today time.Time, opts Options, rejected []Rejection) (*Valuation, error) {
	start, end := tf.Start(today), CalendarDate(today)

	series, err := DailySeries(l, start, end, opts)
	if err != nil {
		return nil, err
	}
	allocation, err := AllocateWindow(l, start, end, opts)
	if err != nil {
		return nil, err
	}
	allocation = Weights(allocation)

	return &Valuation{
		Timeframe:     tf,
		StartDate:     start.Format(DateLayout),
		EndDate:       end.Format(DateLayout),
		Series:        series,
		Allocation:    allocation,
		Concentration: Concentrate(allocation),
		Rejected:      rejected,
	}, nil
}
