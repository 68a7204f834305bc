package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// ValuePoint is the cost-basis valuation at the end of one calendar day.
type ValuePoint struct {
	Date  time.Time
	Value float64
}

type valuePointJSON struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// MarshalJSON renders {"date":"YYYY-MM-DD","value":n}.
func (p ValuePoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(valuePointJSON{Date: p.Date.Format(DateLayout), Value: p.Value})
}

// UnmarshalJSON accepts the MarshalJSON form; the date may be any layout ParseDate knows.
func (p *ValuePoint) UnmarshalJSON(data []byte) error {
	var raw valuePointJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, ok := ParseDate(raw.Date)
	if !ok {
		return fmt.Errorf("invalid date %q", raw.Date)
	}
	p.Date, p.Value = date, raw.Value
	return nil
}

// DailySeries steps one day at a time from start through today, both
// inclusive. A zero seed point at start is emitted before anything is
// applied, then each day's transactions are replayed in ledger order and
// the day's Σ shares × avgCost is recorded.
//
// Values are cost basis, not market value: there is no price history here.
func DailySeries(l Ledger, start, today time.Time, opts Options) ([]ValuePoint, error) {
	from, to := CalendarDate(start), CalendarDate(today)
	if to.Before(from) {
		return nil, nil
	}

	byDate := l.Window(from, to).ByDate()
	acc := NewAccumulator(opts)

	days := int(to.Sub(from).Hours()/24) + 1
	points := make([]ValuePoint, 0, days+1)
	points = append(points, ValuePoint{Date: from, Value: 0})

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		for _, tx := range byDate[d.Format(DateLayout)] {
			if err := acc.Apply(tx); err != nil {
				return nil, err
			}
		}
		// InexactFloat64 copies the scalar out; the point never refers back to acc.
		points = append(points, ValuePoint{Date: d, Value: acc.Total().InexactFloat64()})
	}
	return points, nil
}

// Values extracts the value column of a series.
func Values(points []ValuePoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Value
	}
	return out
}
