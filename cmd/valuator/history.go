package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

// historyCmd prints the full valuation: daily series, allocation and
// concentration.
type historyCmd struct {
	sourceFlags
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print the daily cost-basis series of a ledger" }
func (*historyCmd) Usage() string {
	return `valuator history (-file <ledger.json> | -portfolios <id,...>) [-timeframe 1M] [-strict]

  Replays the ledger and prints the daily valuation series as JSON.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	v, err := c.valuate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing valuation: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := c.writeJSON(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
