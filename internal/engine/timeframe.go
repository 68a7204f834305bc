package engine

import "time"

// Timeframe is a symbolic lookback window.
type Timeframe string

const (
	Timeframe1D Timeframe = "1D"
	Timeframe1W Timeframe = "1W"
	Timeframe1M Timeframe = "1M"
	Timeframe3M Timeframe = "3M"
	Timeframe1Y Timeframe = "1Y"

	DefaultTimeframe = Timeframe1M
)

// Timeframes lists the accepted tokens.
var Timeframes = []Timeframe{Timeframe1D, Timeframe1W, Timeframe1M, Timeframe3M, Timeframe1Y}

// ParseTimeframe maps a token onto a Timeframe. Unknown or empty tokens
// resolve to DefaultTimeframe.
func ParseTimeframe(token string) Timeframe {
	switch tf := Timeframe(token); tf {
	case Timeframe1D, Timeframe1W, Timeframe1M, Timeframe3M, Timeframe1Y:
		return tf
	default:
		return DefaultTimeframe
	}
}

// Start returns the first calendar date of the window ending on today.
func (tf Timeframe) Start(today time.Time) time.Time {
	d := CalendarDate(today)
	switch tf {
	case Timeframe1D:
		return d.AddDate(0, 0, -1)
	case Timeframe1W:
		return d.AddDate(0, 0, -7)
	case Timeframe3M:
		return d.AddDate(0, -3, 0)
	case Timeframe1Y:
		return d.AddDate(-1, 0, 0)
	default:
		return d.AddDate(0, -1, 0)
	}
}

// ResolveTimeframe returns the start date for a token relative to today.
func ResolveTimeframe(token string, today time.Time) time.Time {
	return ParseTimeframe(token).Start(today)
}
