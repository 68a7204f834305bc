package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"valuator/internal/client"
	"valuator/internal/engine"
)

// sourceFlags are the flags shared by every subcommand: where the ledger
// comes from and how it is replayed.
type sourceFlags struct {
	file       string
	portfolios string
	timeframe  string
	strict     bool

	// out and now are swapped in tests.
	out io.Writer
	now func() time.Time
}

func (s *sourceFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.file, "file", "", "JSON file holding an array of transaction records ('-' reads stdin)")
	f.StringVar(&s.portfolios, "portfolios", "", "comma-separated portfolio ids fetched from the API at VALUATOR_API_URL")
	f.StringVar(&s.timeframe, "timeframe", string(engine.DefaultTimeframe), "1D, 1W, 1M, 3M or 1Y")
	f.BoolVar(&s.strict, "strict", false, "fail when a SELL exceeds the shares held")
}

func (s *sourceFlags) validate() error {
	if (s.file == "") == (s.portfolios == "") {
		return errors.New("exactly one of -file or -portfolios is required")
	}
	return nil
}

// valuate loads the ledger and replays it over the selected timeframe.
func (s *sourceFlags) valuate(ctx context.Context) (*engine.Valuation, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	records, err := s.records(ctx, cfg)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if s.now != nil {
		now = s.now
	}
	today := engine.CalendarDate(now().UTC())
	opts := engine.Options{StrictOversell: s.strict || cfg.StrictOversell}
	return engine.Valuate(records, s.timeframe, today, opts)
}

func (s *sourceFlags) records(ctx context.Context, cfg cliConfig) ([]engine.Record, error) {
	if s.file != "" {
		return readRecords(s.file)
	}

	var ids []string
	for _, id := range strings.Split(s.portfolios, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New("-portfolios names no portfolio")
	}

	c := client.New(cfg.APIURL, cfg.Token, client.Options{
		Timeout:     cfg.Timeout,
		Concurrency: cfg.Concurrency,
	})
	return c.FetchPortfolios(ctx, ids)
}

func readRecords(path string) ([]engine.Record, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening ledger: %w", err)
		}
		defer f.Close()
		r = f
	}

	var records []engine.Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding ledger %s: %w", path, err)
	}
	return records, nil
}

func (s *sourceFlags) writeJSON(v any) error {
	out := s.out
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
