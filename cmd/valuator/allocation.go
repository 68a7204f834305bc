package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"valuator/internal/engine"
)

type allocationCmd struct {
	sourceFlags
}

type allocationOutput struct {
	AsOf          string                   `json:"as_of"`
	Allocation    []engine.AllocationEntry `json:"allocation"`
	Concentration engine.Concentration     `json:"concentration"`
}

func (*allocationCmd) Name() string     { return "allocation" }
func (*allocationCmd) Synopsis() string { return "print the per-symbol cost-basis allocation" }
func (*allocationCmd) Usage() string {
	return `valuator allocation (-file <ledger.json> | -portfolios <id,...>) [-timeframe 1M] [-strict]

  Prints the allocation of the transactions inside the timeframe window.
`
}

func (c *allocationCmd) SetFlags(f *flag.FlagSet) { c.register(f) }

func (c *allocationCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	v, err := c.valuate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error computing allocation: %v\n", err)
		return subcommands.ExitFailure
	}

	out := allocationOutput{
		AsOf:          v.EndDate,
		Allocation:    v.Allocation,
		Concentration: v.Concentration,
	}
	if err := c.writeJSON(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
