package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"valuator/internal/cache"
	"valuator/internal/engine"
	apperrors "valuator/internal/errors"
	"valuator/internal/models"
	"valuator/internal/risk"
	"valuator/internal/testutil"
)

var valuationToday = time.Date(2024, time.January, 10, 18, 0, 0, 0, time.UTC)

type valuationFixture struct {
	svc       ValuationServicer
	cache     *cache.MemoryCache
	userID    string
	portfolio string
}

func newValuationFixture(t *testing.T, strict bool) (*valuationFixture, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := cache.NewMemoryCache(time.Minute)
	ps := NewPortfolioService(db, c)
	svc := NewValuationService(db, ps, c, nil, ValuationOptions{
		StrictOversell: strict,
		Now:            func() time.Time { return valuationToday },
	})

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)
	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeBuy, "10", "10", testutil.Day(2024, 1, 8))
	testutil.CreateTestTrade(t, db, p.ID, "MSFT", models.TransactionTypeBuy, "5", "20", testutil.Day(2024, 1, 9))
	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeSell, "5", "12", testutil.Day(2024, 1, 10))
	testutil.CreateTestTrade(t, db, p.ID, "MSFT", models.TransactionTypeDividend, "0", "0", testutil.Day(2024, 1, 10))

	return &valuationFixture{svc: svc, cache: c, userID: user.ID, portfolio: p.ID},
		func() { testutil.TeardownTestDB(t, db) }
}

func TestGetHistory(t *testing.T) {
	t.Run("one_week", func(t *testing.T) {
		f, cleanup := newValuationFixture(t, false)
		defer cleanup()

		v, err := f.svc.GetHistory(context.Background(), f.userID, f.portfolio, engine.Timeframe1W)
		testutil.AssertNoError(t, err)

		if v.StartDate != "2024-01-03" || v.EndDate != "2024-01-10" {
			t.Errorf("unexpected window %s..%s", v.StartDate, v.EndDate)
		}
		// seed point plus eight days
		if len(v.Series) != 9 {
			t.Fatalf("expected 9 points, got %d", len(v.Series))
		}
		if got := v.Series[len(v.Series)-1].Value; got != 150 {
			t.Errorf("expected final value 150, got %v", got)
		}
		if got := v.Series[len(v.Series)-2].Value; got != 200 {
			t.Errorf("expected value 200 on Jan 9, got %v", got)
		}
		if len(v.Allocation) != 2 || v.Allocation[0].Name != "AAPL" || v.Allocation[0].Value != 50 {
			t.Errorf("unexpected allocation %+v", v.Allocation)
		}
	})

	t.Run("cached_until_ledger_changes", func(t *testing.T) {
		f, cleanup := newValuationFixture(t, false)
		defer cleanup()

		_, err := f.svc.GetHistory(context.Background(), f.userID, f.portfolio, engine.Timeframe1M)
		testutil.AssertNoError(t, err)
		if f.cache.Len(f.portfolio) != 1 {
			t.Fatalf("expected one cached entry, got %d", f.cache.Len(f.portfolio))
		}

		testutil.AssertNoError(t, f.cache.Invalidate(context.Background(), f.portfolio))
		if f.cache.Len(f.portfolio) != 0 {
			t.Error("expected cache to be empty after invalidation")
		}
	})

	t.Run("cache_hit_matches_fresh_result", func(t *testing.T) {
		f, cleanup := newValuationFixture(t, false)
		defer cleanup()

		first, err := f.svc.GetHistory(context.Background(), f.userID, f.portfolio, engine.Timeframe1W)
		testutil.AssertNoError(t, err)
		second, err := f.svc.GetHistory(context.Background(), f.userID, f.portfolio, engine.Timeframe1W)
		testutil.AssertNoError(t, err)

		if len(first.Series) != len(second.Series) {
			t.Fatalf("series length changed: %d vs %d", len(first.Series), len(second.Series))
		}
		for i := range first.Series {
			if !first.Series[i].Date.Equal(second.Series[i].Date) || first.Series[i].Value != second.Series[i].Value {
				t.Errorf("point %d differs: %+v vs %+v", i, first.Series[i], second.Series[i])
			}
		}
	})

	t.Run("other_user", func(t *testing.T) {
		f, cleanup := newValuationFixture(t, false)
		defer cleanup()

		_, err := f.svc.GetHistory(context.Background(), "someone-else", f.portfolio, engine.Timeframe1W)
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}

func TestGetHistory_strictOversell(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	ps := NewPortfolioService(db, nil)
	svc := NewValuationService(db, ps, nil, nil, ValuationOptions{
		StrictOversell: true,
		Now:            func() time.Time { return valuationToday },
	})

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)
	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeBuy, "1", "10", testutil.Day(2024, 1, 8))
	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeSell, "2", "10", testutil.Day(2024, 1, 9))

	_, err := svc.GetHistory(context.Background(), user.ID, p.ID, engine.Timeframe1W)
	testutil.AssertAppError(t, err, "OVERSELL")
	if !errors.Is(err, engine.ErrOversell) {
		t.Error("expected engine.ErrOversell in the chain")
	}
}

func TestGetAllocation(t *testing.T) {
	f, cleanup := newValuationFixture(t, false)
	defer cleanup()

	res, err := f.svc.GetAllocation(context.Background(), f.userID, f.portfolio, engine.Timeframe1D)
	testutil.AssertNoError(t, err)

	// 1D only covers today's sell, which has nothing to sell from.
	if res.AsOf != "2024-01-10" || res.Timeframe != engine.Timeframe1D {
		t.Errorf("unexpected result %+v", res)
	}
	if len(res.Allocation) != 0 {
		t.Errorf("expected empty allocation, got %+v", res.Allocation)
	}
}

func TestGetMetrics(t *testing.T) {
	f, cleanup := newValuationFixture(t, false)
	defer cleanup()

	m, err := f.svc.GetMetrics(context.Background(), f.userID, f.portfolio, engine.Timeframe1W, nil)
	testutil.AssertNoError(t, err)

	if m.PortfolioID != f.portfolio || m.Beta != 1 {
		t.Errorf("unexpected metrics %+v", m)
	}
	// zero-valued days contribute no returns
	if m.Observations != 2 {
		t.Errorf("expected 2 returns, got %d", m.Observations)
	}
	// Jan 9 to Jan 10 drops from 200 to 150.
	if math.Abs(m.MaxDrawdown-25) > 1e-9 {
		t.Errorf("expected max drawdown 25, got %v", m.MaxDrawdown)
	}
}

func TestComputeValuation(t *testing.T) {
	svc := NewValuationService(nil, nil, nil, nil, ValuationOptions{
		Now: func() time.Time { return valuationToday },
	})
	d := func(s string) *decimal.Decimal {
		v := decimal.RequireFromString(s)
		return &v
	}

	records := []engine.Record{
		{ID: "1", Symbol: "AAPL", Type: "BUY", Shares: d("10"), TotalAmount: d("1000"), TransactionDate: "2024-01-08T10:00:00Z"},
		{ID: "2", Symbol: "", Type: "BUY", Shares: d("1"), TotalAmount: d("1"), TransactionDate: "2024-01-08"},
		{ID: "3", Symbol: "AAPL", Type: "SELL", Shares: d("20"), TotalAmount: d("2000"), TransactionDate: "2024-01-09"},
	}

	t.Run("lenient", func(t *testing.T) {
		v, err := svc.ComputeValuation(records, "1W", false)
		testutil.AssertNoError(t, err)
		if len(v.Rejected) != 1 || v.Rejected[0].ID != "2" {
			t.Errorf("expected record 2 rejected, got %+v", v.Rejected)
		}
		if got := v.Series[len(v.Series)-1].Value; got != 0 {
			t.Errorf("expected oversold position to be worth 0, got %v", got)
		}
	})

	t.Run("strict", func(t *testing.T) {
		_, err := svc.ComputeValuation(records, "1W", true)
		testutil.AssertAppError(t, err, apperrors.ErrOversell.Code)
	})

	t.Run("unknown_timeframe_defaults", func(t *testing.T) {
		v, err := svc.ComputeValuation(records, "5Y", false)
		testutil.AssertNoError(t, err)
		if v.Timeframe != engine.DefaultTimeframe {
			t.Errorf("expected default timeframe, got %s", v.Timeframe)
		}
	})
}

func TestComputeRisk(t *testing.T) {
	svc := NewValuationService(nil, nil, nil, nil, ValuationOptions{})
	m := svc.ComputeRisk(risk.Input{Values: []float64{100, 110, 99}})
	if m.Observations != 2 {
		t.Errorf("expected 2 observations, got %d", m.Observations)
	}
	if math.Abs(m.MaxDrawdown-10) > 1e-9 {
		t.Errorf("expected max drawdown 10, got %v", m.MaxDrawdown)
	}
}
