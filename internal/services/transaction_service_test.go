package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"valuator/internal/cache"
	"valuator/internal/models"
	"valuator/internal/pagination"
	"valuator/internal/testutil"
)

func newTransactionService(t *testing.T) (TransactionServicer, *cache.MemoryCache, func()) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	c := cache.NewMemoryCache(time.Minute)
	svc := NewTransactionService(db, NewPortfolioService(db, c), c)
	return svc, c, func() { testutil.TeardownTestDB(t, db) }
}

func TestCreateTransaction(t *testing.T) {
	t.Run("normalizes_and_defaults_total", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewPortfolioService(db, nil), nil)
		user := testutil.CreateTestUser(t, db)
		p := testutil.CreateTestPortfolio(t, db, user.ID)

		date := time.Date(2024, 2, 1, 15, 30, 0, 0, time.FixedZone("EST", -5*3600))
		tx, err := svc.CreateTransaction(user.ID, p.ID, TransactionInput{
			Symbol: " aapl ",
			Type:   "buy",
			Shares: decimal.NewFromInt(3),
			Price:  decimal.RequireFromString("150.25"),
			Date:   &date,
		})
		testutil.AssertNoError(t, err)

		if tx.Symbol != "AAPL" || tx.Type != models.TransactionTypeBuy {
			t.Errorf("expected AAPL BUY, got %s %s", tx.Symbol, tx.Type)
		}
		if !tx.TotalAmount.Equal(decimal.RequireFromString("450.75")) {
			t.Errorf("expected total 450.75, got %s", tx.TotalAmount)
		}
		if tx.TransactionDate.Location() != time.UTC || tx.TransactionDate.Hour() != 20 {
			t.Errorf("expected date stored in UTC, got %s", tx.TransactionDate)
		}
	})

	t.Run("explicit_total_wins", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewPortfolioService(db, nil), nil)
		user := testutil.CreateTestUser(t, db)
		p := testutil.CreateTestPortfolio(t, db, user.ID)

		total := decimal.RequireFromString("455.75")
		tx, err := svc.CreateTransaction(user.ID, p.ID, TransactionInput{
			Symbol:      "AAPL",
			Type:        models.TransactionTypeBuy,
			Shares:      decimal.NewFromInt(3),
			Price:       decimal.RequireFromString("150.25"),
			Fees:        decimal.NewFromInt(5),
			TotalAmount: &total,
		})
		testutil.AssertNoError(t, err)
		if !tx.TotalAmount.Equal(total) {
			t.Errorf("expected total %s, got %s", total, tx.TotalAmount)
		}
		if time.Since(tx.TransactionDate) > time.Minute {
			t.Errorf("expected date to default to now, got %s", tx.TransactionDate)
		}
	})

	t.Run("invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewTransactionService(db, NewPortfolioService(db, nil), nil)
		user := testutil.CreateTestUser(t, db)
		p := testutil.CreateTestPortfolio(t, db, user.ID)

		_, err := svc.CreateTransaction(user.ID, p.ID, TransactionInput{Symbol: "", Type: "BUY", Shares: decimal.NewFromInt(1)})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.CreateTransaction(user.ID, p.ID, TransactionInput{Symbol: "X", Type: "SHORT", Shares: decimal.NewFromInt(1)})
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")

		_, err = svc.CreateTransaction(user.ID, p.ID, TransactionInput{Symbol: "X", Type: "SELL", Shares: decimal.Zero})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_portfolio", func(t *testing.T) {
		svc, _, cleanup := newTransactionService(t)
		defer cleanup()

		_, err := svc.CreateTransaction("someone", "missing", TransactionInput{Symbol: "X", Type: "BUY", Shares: decimal.NewFromInt(1)})
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}

func TestTransactionsInvalidateCache(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	c := cache.NewMemoryCache(time.Minute)
	svc := NewTransactionService(db, NewPortfolioService(db, c), c)
	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)
	ctx := context.Background()

	_ = c.Set(ctx, p.ID, "history", 1)
	tx, err := svc.CreateTransaction(user.ID, p.ID, TransactionInput{Symbol: "X", Type: "BUY", Shares: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)})
	testutil.AssertNoError(t, err)
	if c.Len(p.ID) != 0 {
		t.Error("expected create to invalidate the cache")
	}

	_ = c.Set(ctx, p.ID, "history", 1)
	testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))
	if c.Len(p.ID) != 0 {
		t.Error("expected delete to invalidate the cache")
	}
}

func TestGetPortfolioTransactions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewPortfolioService(db, nil), nil)
	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)

	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeBuy, "1", "10", testutil.Day(2024, 1, 1))
	testutil.CreateTestTrade(t, db, p.ID, "MSFT", models.TransactionTypeBuy, "1", "10", testutil.Day(2024, 1, 2))
	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeSell, "1", "12", testutil.Day(2024, 1, 3))

	t.Run("all_newest_first", func(t *testing.T) {
		resp, err := svc.GetPortfolioTransactions(user.ID, p.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 3 || resp.Data[0].Type != models.TransactionTypeSell {
			t.Errorf("unexpected page %+v", resp)
		}
	})

	t.Run("ascending", func(t *testing.T) {
		resp, err := svc.GetPortfolioTransactions(user.ID, p.ID, pagination.PageRequest{Order: "asc"}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if resp.Data[0].Symbol != "AAPL" || resp.Data[0].Type != models.TransactionTypeBuy {
			t.Errorf("expected oldest AAPL buy first, got %+v", resp.Data[0])
		}
	})

	t.Run("filters", func(t *testing.T) {
		sell := models.TransactionTypeSell
		resp, err := svc.GetPortfolioTransactions(user.ID, p.ID, pagination.PageRequest{}, TransactionFilter{Symbol: "aapl", Type: &sell})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 {
			t.Errorf("expected 1 AAPL sell, got %d", resp.TotalItems)
		}

		from, to := testutil.Day(2024, 1, 2), testutil.Day(2024, 1, 2).Add(24*time.Hour-time.Nanosecond)
		resp, err = svc.GetPortfolioTransactions(user.ID, p.ID, pagination.PageRequest{}, TransactionFilter{FromDate: &from, ToDate: &to})
		testutil.AssertNoError(t, err)
		if resp.TotalItems != 1 || resp.Data[0].Symbol != "MSFT" {
			t.Errorf("expected only the MSFT buy, got %+v", resp.Data)
		}
	})

	t.Run("other_user", func(t *testing.T) {
		other := testutil.CreateTestUser(t, db)
		_, err := svc.GetPortfolioTransactions(other.ID, p.ID, pagination.PageRequest{}, TransactionFilter{})
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})

	t.Run("entry_order", func(t *testing.T) {
		late := testutil.CreateTestTrade(t, db, p.ID, "TSLA", models.TransactionTypeBuy, "1", "10", testutil.Day(2023, 12, 31))

		resp, err := svc.GetPortfolioTransactions(user.ID, p.ID, pagination.PageRequest{Order: "asc"}, TransactionFilter{})
		testutil.AssertNoError(t, err)
		if resp.Data[0].ID != late.ID {
			t.Errorf("expected the earliest dated trade first by date, got %+v", resp.Data[0])
		}

		resp, err = svc.GetPortfolioTransactions(user.ID, p.ID, pagination.PageRequest{Order: "asc"}, TransactionFilter{EntryOrder: true})
		testutil.AssertNoError(t, err)
		if got := resp.Data[len(resp.Data)-1].ID; got != late.ID {
			t.Errorf("expected the last recorded trade last, got %s", got)
		}
		if resp.Data[0].Symbol != "AAPL" {
			t.Errorf("expected the first recorded trade first, got %+v", resp.Data[0])
		}
	})
}

func TestGetTransactionByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewPortfolioService(db, nil), nil)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)
	tx := testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeBuy, "1", "10", testutil.Day(2024, 1, 1))

	got, err := svc.GetTransactionByID(user.ID, tx.ID)
	testutil.AssertNoError(t, err)
	if got.ID != tx.ID {
		t.Errorf("expected %s, got %s", tx.ID, got.ID)
	}

	_, err = svc.GetTransactionByID(other.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")

	testutil.AssertNoError(t, svc.DeleteTransaction(user.ID, tx.ID))
	_, err = svc.GetTransactionByID(user.ID, tx.ID)
	testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
}

func TestGetTransactionStats(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewTransactionService(db, NewPortfolioService(db, nil), nil)
	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)

	t.Run("empty", func(t *testing.T) {
		stats, err := svc.GetTransactionStats(user.ID, p.ID)
		testutil.AssertNoError(t, err)
		if stats.Total != 0 || stats.FirstDate != nil {
			t.Errorf("expected empty stats, got %+v", stats)
		}
	})

	t.Run("counts_by_type", func(t *testing.T) {
		testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeBuy, "2", "10", testutil.Day(2024, 1, 1))
		testutil.CreateTestTrade(t, db, p.ID, "MSFT", models.TransactionTypeBuy, "1", "10", testutil.Day(2024, 1, 5))
		testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeSell, "1", "12", testutil.Day(2024, 1, 9))
		testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeDividend, "0", "0", testutil.Day(2024, 1, 4))

		stats, err := svc.GetTransactionStats(user.ID, p.ID)
		testutil.AssertNoError(t, err)

		if stats.Total != 4 || stats.Buys != 2 || stats.Sells != 1 || stats.Dividends != 1 {
			t.Errorf("unexpected counts %+v", stats)
		}
		if stats.Symbols != 2 {
			t.Errorf("expected 2 symbols, got %d", stats.Symbols)
		}
		if stats.FirstDate == nil || !stats.FirstDate.Equal(testutil.Day(2024, 1, 1)) {
			t.Errorf("unexpected first date %v", stats.FirstDate)
		}
		if stats.LastDate == nil || !stats.LastDate.Equal(testutil.Day(2024, 1, 9)) {
			t.Errorf("unexpected last date %v", stats.LastDate)
		}
	})
}
