// Package risk computes performance statistics over return and value series.
// Every function is total: degenerate input yields a neutral value instead of
// an error, since results go straight to display.
package risk

import (
	"math"
	"sort"
)

const (
	DefaultRiskFreeRate    = 0.02
	DefaultConfidenceLevel = 0.95

	// TradingDays annualizes daily statistics.
	TradingDays = 252
)

// SharpeRatio is (mean(returns) − riskFreeRate) / σ, with σ the population
// standard deviation. Empty input or zero deviation gives 0.
func SharpeRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := stdDev(returns)
	if sd == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / sd
}

// SortinoRatio is SharpeRatio with σ taken over negative returns only.
// It is 0 when nothing was lost.
func SortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sum := 0.0
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	downside := math.Sqrt(sum / float64(len(returns)))
	if downside == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / downside
}

// Beta is cov(portfolio, market) / var(market) using population statistics.
// Mismatched lengths, empty series or a flat market give the neutral 1.
func Beta(portfolioReturns, marketReturns []float64) float64 {
	n := len(portfolioReturns)
	if n == 0 || n != len(marketReturns) {
		return 1
	}

	pm, mm := mean(portfolioReturns), mean(marketReturns)
	cov, variance := 0.0, 0.0
	for i := range portfolioReturns {
		dm := marketReturns[i] - mm
		cov += (portfolioReturns[i] - pm) * dm
		variance += dm * dm
	}
	if variance == 0 {
		return 1
	}
	return cov / variance
}

// MaxDrawdown is the largest (peak − v) / peak × 100 seen while walking the
// series. Points before the first positive value are skipped.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
			continue
		}
		if peak <= 0 || v >= peak {
			continue
		}
		if dd := (peak - v) / peak * 100; dd > worst {
			worst = dd
		}
	}
	return worst
}

// ValueAtRisk is the historical-simulation VaR: the absolute return at index
// floor((1 − confidence) × n) of the ascending-sorted returns. The input is
// not reordered.
func ValueAtRisk(returns []float64, confidenceLevel float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidenceLevel) * float64(len(sorted))))
	if idx < 0 || idx >= len(sorted) {
		return 0
	}
	return math.Abs(sorted[idx])
}

// Returns converts a value series into simple period returns. Periods whose
// base value is not positive, like a zero seed point, are skipped.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev <= 0 {
			continue
		}
		out = append(out, (values[i]-prev)/prev)
	}
	return out
}

// Volatility is the annualized population standard deviation of daily
// returns, in percent.
func Volatility(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	return stdDev(returns) * math.Sqrt(TradingDays) * 100
}

// Alpha is Jensen's alpha of daily returns against the market, annualized
// and in percent. riskFreeRate is annual here and spread over TradingDays.
// Mismatched lengths or empty series give 0.
func Alpha(portfolioReturns, marketReturns []float64, riskFreeRate float64) float64 {
	n := len(portfolioReturns)
	if n == 0 || n != len(marketReturns) {
		return 0
	}
	daily := riskFreeRate / TradingDays
	beta := Beta(portfolioReturns, marketReturns)
	alpha := mean(portfolioReturns) - (daily + beta*(mean(marketReturns)-daily))
	return alpha * TradingDays * 100
}

// AnnualizedReturn compounds the daily returns and scales the growth to
// TradingDays periods, in percent. An unrepresentable result gives 0.
func AnnualizedReturn(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	if growth <= 0 {
		return -100
	}
	annual := math.Pow(growth, TradingDays/float64(len(returns))) - 1
	if math.IsInf(annual, 0) || math.IsNaN(annual) {
		return 0
	}
	return annual * 100
}

// InformationRatio is mean(excess) / σ(excess), excess being portfolio minus
// market return per period. Mismatched lengths, empty series or zero
// tracking error give 0.
func InformationRatio(portfolioReturns, marketReturns []float64) float64 {
	n := len(portfolioReturns)
	if n == 0 || n != len(marketReturns) {
		return 0
	}
	excess := make([]float64, n)
	for i := range portfolioReturns {
		excess[i] = portfolioReturns[i] - marketReturns[i]
	}
	te := stdDev(excess)
	if te == 0 {
		return 0
	}
	return mean(excess) / te
}

func mean(xs []float64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdDev(xs []float64) float64 {
	m := mean(xs)
	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)))
}
