package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"valuator/internal/client"
)

// snapshotCmd triggers the snapshot pipeline of a running API, for hosts
// that schedule it externally instead of with SNAPSHOT_CRON.
type snapshotCmd struct {
	date string
}

func (*snapshotCmd) Name() string     { return "snapshot" }
func (*snapshotCmd) Synopsis() string { return "record cost-basis snapshots of every portfolio" }
func (*snapshotCmd) Usage() string {
	return `valuator snapshot [-date YYYY-MM-DD]

  Calls the pipeline endpoint with VALUATOR_PIPELINE_API_KEY.
`
}

func (c *snapshotCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "day to snapshot (default today)")
}

func (c *snapshotCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	recordedAt := time.Now().UTC()
	if c.date != "" {
		t, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -date: %v\n", err)
			return subcommands.ExitUsageError
		}
		recordedAt = t
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if cfg.PipelineAPIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: VALUATOR_PIPELINE_API_KEY is required")
		return subcommands.ExitUsageError
	}

	api := client.New(cfg.APIURL, cfg.Token, client.Options{Timeout: cfg.Timeout})
	n, err := api.ComputeSnapshots(ctx, cfg.PipelineAPIKey, recordedAt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("%d snapshots recorded\n", n)
	return subcommands.ExitSuccess
}
