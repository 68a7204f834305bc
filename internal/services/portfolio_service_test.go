package services

import (
	"context"
	"testing"
	"time"

	"valuator/internal/cache"
	"valuator/internal/models"
	"valuator/internal/pagination"
	"valuator/internal/testutil"
)

func TestCreatePortfolio(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db, nil)
		user := testutil.CreateTestUser(t, db)

		p, err := svc.CreatePortfolio(user.ID, "  Retirement ", "long term")
		testutil.AssertNoError(t, err)

		if p.ID == "" || p.Name != "Retirement" || p.UserID != user.ID {
			t.Errorf("unexpected portfolio %+v", p)
		}
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreatePortfolio(user.ID, " ", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserPortfolios(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db, nil)

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	for i := 0; i < 3; i++ {
		testutil.CreateTestPortfolio(t, db, user.ID)
	}
	testutil.CreateTestPortfolio(t, db, other.ID)

	resp, err := svc.GetUserPortfolios(user.ID, pagination.PageRequest{Page: 1, PageSize: 2})
	testutil.AssertNoError(t, err)

	if resp.TotalItems != 3 {
		t.Errorf("expected 3 portfolios, got %d", resp.TotalItems)
	}
	if len(resp.Data) != 2 || resp.TotalPages != 2 {
		t.Errorf("expected 2 items on 2 pages, got %d items on %d pages", len(resp.Data), resp.TotalPages)
	}
}

func TestGetPortfolioByID(t *testing.T) {
	t.Run("owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db, nil)
		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestPortfolio(t, db, user.ID)

		p, err := svc.GetPortfolioByID(user.ID, created.ID)
		testutil.AssertNoError(t, err)
		if p.ID != created.ID {
			t.Errorf("expected %s, got %s", created.ID, p.ID)
		}
	})

	t.Run("other_users_portfolio", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPortfolioService(db, nil)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestPortfolio(t, db, owner.ID)

		_, err := svc.GetPortfolioByID(intruder.ID, created.ID)
		testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")
	})
}

func TestUpdatePortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPortfolioService(db, nil)
	user := testutil.CreateTestUser(t, db)
	created := testutil.CreateTestPortfolio(t, db, user.ID)

	name := "Renamed"
	p, err := svc.UpdatePortfolio(user.ID, created.ID, &name, nil)
	testutil.AssertNoError(t, err)
	if p.Name != "Renamed" {
		t.Errorf("expected Renamed, got %s", p.Name)
	}

	blank := ""
	_, err = svc.UpdatePortfolio(user.ID, created.ID, &blank, nil)
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestDeletePortfolio(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	c := cache.NewMemoryCache(time.Minute)
	svc := NewPortfolioService(db, c)

	user := testutil.CreateTestUser(t, db)
	p := testutil.CreateTestPortfolio(t, db, user.ID)
	testutil.CreateTestTrade(t, db, p.ID, "AAPL", models.TransactionTypeBuy, "1", "100", testutil.Day(2024, 1, 2))
	_ = c.Set(context.Background(), p.ID, "history", []int{1})

	testutil.AssertNoError(t, svc.DeletePortfolio(user.ID, p.ID))

	_, err := svc.GetPortfolioByID(user.ID, p.ID)
	testutil.AssertAppError(t, err, "PORTFOLIO_NOT_FOUND")

	var remaining int64
	db.Model(&models.Transaction{}).Where("portfolio_id = ?", p.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected ledger to be deleted, %d transactions remain", remaining)
	}
	if c.Len(p.ID) != 0 {
		t.Error("expected cache entries to be invalidated")
	}
}
