// Package client fetches portfolio ledgers from a running Valuator API.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"

	"valuator/internal/engine"
	"valuator/internal/logger"
)

const (
	transactionsPageSize = 100
	defaultMaxTries      = 4
	defaultConcurrency   = 4
	apiKeyHeader         = "X-API-Key"
)

// Options tune a Client. Zero values fall back to sensible defaults.
type Options struct {
	Timeout time.Duration
	// MaxTries bounds attempts per page request, first try included.
	MaxTries uint
	// InitialInterval is the first retry delay; it grows exponentially.
	InitialInterval time.Duration
	// Concurrency bounds how many portfolios are fetched at once.
	Concurrency int
}

// Client talks to the portfolio routes of the API with a bearer token.
type Client struct {
	http        *resty.Client
	maxTries    uint
	initial     time.Duration
	concurrency int
}

// transactionPage mirrors the paginated list response of the API.
type transactionPage struct {
	Data       []engine.Record `json:"data"`
	Page       int             `json:"page"`
	TotalPages int             `json:"total_pages"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// New creates a client for the API at baseURL.
func New(baseURL, token string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxTries == 0 {
		opts.MaxTries = defaultMaxTries
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 200 * time.Millisecond
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(opts.Timeout).
		SetAuthToken(token).
		SetHeader("Accept", "application/json")

	return &Client{
		http:        httpClient,
		maxTries:    opts.MaxTries,
		initial:     opts.InitialInterval,
		concurrency: opts.Concurrency,
	}
}

// FetchPortfolio returns every replayable record of one portfolio, walking
// all pages of its transaction list in the order the API itself replays them.
func (c *Client) FetchPortfolio(ctx context.Context, portfolioID string) ([]engine.Record, error) {
	var records []engine.Record
	for page := 1; ; page++ {
		p, err := c.fetchPage(ctx, portfolioID, page)
		if err != nil {
			return nil, fmt.Errorf("fetching transactions of portfolio %s (page %d): %w", portfolioID, page, err)
		}
		for _, r := range p.Data {
			if t := strings.ToUpper(r.Type); t == string(engine.Buy) || t == string(engine.Sell) {
				records = append(records, r)
			}
		}
		if page >= p.TotalPages {
			return records, nil
		}
	}
}

// FetchPortfolios fetches several portfolios concurrently and concatenates
// their records in the order the ids were given. The first failure cancels
// the remaining fetches and is returned.
func (c *Client) FetchPortfolios(ctx context.Context, portfolioIDs []string) ([]engine.Record, error) {
	results := make([][]engine.Record, len(portfolioIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, id := range portfolioIDs {
		g.Go(func() error {
			records, err := c.FetchPortfolio(gctx, id)
			if err != nil {
				return err
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []engine.Record
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func (c *Client) fetchPage(ctx context.Context, portfolioID string, page int) (*transactionPage, error) {
	log := logger.Named("client")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxInterval = c.initial * 10

	operation := func() (*transactionPage, error) {
		var result transactionPage
		var failure apiError
		resp, err := c.http.R().
			SetContext(ctx).
			SetPathParam("id", portfolioID).
			SetQueryParams(map[string]string{
				"page":      strconv.Itoa(page),
				"page_size": strconv.Itoa(transactionsPageSize),
				"order":     "asc",
				"sort":      "entry",
			}).
			SetResult(&result).
			SetError(&failure).
			Get("/api/v1/portfolios/{id}/transactions")
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			err := statusError(resp.StatusCode(), failure)
			if resp.StatusCode() < http.StatusInternalServerError && resp.StatusCode() != http.StatusTooManyRequests {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return &result, nil
	}

	notify := func(err error, wait time.Duration) {
		log.Debugw("Retrying transaction fetch", "portfolio_id", portfolioID, "page", page, "error", err, "backoff", wait)
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(notify))
}

// ComputeSnapshots asks the pipeline endpoint to record a cost-basis
// snapshot of every portfolio as of recordedAt, and returns how many were
// recorded. It authenticates with the pipeline API key, not the bearer token.
func (c *Client) ComputeSnapshots(ctx context.Context, apiKey string, recordedAt time.Time) (int, error) {
	var result struct {
		SnapshotsRecorded int `json:"snapshots_recorded"`
	}
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader(apiKeyHeader, apiKey).
		SetBody(map[string]string{"recorded_at": recordedAt.UTC().Format(time.RFC3339)}).
		SetResult(&result).
		SetError(&failure).
		Post("/api/v1/pipeline/snapshots")
	if err != nil {
		return 0, fmt.Errorf("computing snapshots: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("computing snapshots: %w", statusError(resp.StatusCode(), failure))
	}
	return result.SnapshotsRecorded, nil
}

// ErrUnexpectedStatus is wrapped by every non-2xx response error.
var ErrUnexpectedStatus = errors.New("unexpected status")

func statusError(status int, body apiError) error {
	if body.Error.Message != "" {
		return fmt.Errorf("%w %d: %s", ErrUnexpectedStatus, status, body.Error.Message)
	}
	return fmt.Errorf("%w %d", ErrUnexpectedStatus, status)
}
