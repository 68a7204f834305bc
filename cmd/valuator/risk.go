package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/subcommands"

	"valuator/internal/engine"
	"valuator/internal/risk"
)

type riskCmd struct {
	sourceFlags
	market     string
	riskFree   float64
	confidence float64
}

func (*riskCmd) Name() string     { return "risk" }
func (*riskCmd) Synopsis() string { return "print risk metrics of the valuation series" }
func (*riskCmd) Usage() string {
	return `valuator risk (-file <ledger.json> | -portfolios <id,...>) [-timeframe 1M] [-market r1,r2,...]

  Computes Sharpe, Sortino, beta, max drawdown, VaR and volatility over the
  daily valuation series.
`
}

func (c *riskCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.market, "market", "", "comma-separated benchmark returns used for beta")
	f.Float64Var(&c.riskFree, "rf", risk.DefaultRiskFreeRate, "risk-free rate")
	f.Float64Var(&c.confidence, "confidence", risk.DefaultConfidenceLevel, "VaR confidence level in (0,1)")
}

func (c *riskCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if c.confidence <= 0 || c.confidence >= 1 {
		fmt.Fprintln(os.Stderr, "Error: -confidence must be between 0 and 1")
		return subcommands.ExitUsageError
	}
	market, err := parseReturns(c.market)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -market: %v\n", err)
		return subcommands.ExitUsageError
	}

	v, err := c.valuate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing valuation: %v\n", err)
		return subcommands.ExitFailure
	}

	m := risk.Compute(risk.Input{
		Values:          engine.Values(v.Series),
		MarketReturns:   market,
		RiskFreeRate:    &c.riskFree,
		ConfidenceLevel: &c.confidence,
	})
	if err := c.writeJSON(m); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func parseReturns(raw string) ([]float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
