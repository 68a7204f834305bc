// Package cache stores computed valuation results per portfolio so repeated
// chart requests skip the replay. Entries are grouped by portfolio and a
// ledger write drops the whole group.
package cache

import (
	"context"
	"fmt"
)

// Cache is a portfolio-scoped JSON cache.
type Cache interface {
	// Get decodes the entry into dest and reports whether it was present.
	Get(ctx context.Context, portfolioID, key string, dest any) (bool, error)
	Set(ctx context.Context, portfolioID, key string, value any) error
	// Invalidate drops every entry of the portfolio.
	Invalidate(ctx context.Context, portfolioID string) error
}

const keyPrefix = "valuator"

func entryKey(portfolioID, key string) string {
	return fmt.Sprintf("%s:portfolio:%s:%s", keyPrefix, portfolioID, key)
}

func indexKey(portfolioID string) string {
	return fmt.Sprintf("%s:portfolio:%s:keys", keyPrefix, portfolioID)
}
