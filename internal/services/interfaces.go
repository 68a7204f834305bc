package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"valuator/internal/engine"
	"valuator/internal/models"
	"valuator/internal/pagination"
	"valuator/internal/risk"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// PortfolioServicer defines the contract for portfolio-related business logic.
type PortfolioServicer interface {
	CreatePortfolio(userID, name, description string) (*models.Portfolio, error)
	GetUserPortfolios(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error)
	GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error)
	UpdatePortfolio(userID, portfolioID string, name, description *string) (*models.Portfolio, error)
	DeletePortfolio(userID, portfolioID string) error
}

// TransactionInput carries the fields of a new ledger entry.
// A nil TotalAmount defaults to Shares × Price and a nil Date to now.
type TransactionInput struct {
	Symbol      string
	Type        models.TransactionType
	Shares      decimal.Decimal
	Price       decimal.Decimal
	TotalAmount *decimal.Decimal
	Fees        decimal.Decimal
	Date        *time.Time
	Note        string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
	Symbol   string
	// EntryOrder sorts by when transactions were recorded, the order
	// valuations replay them in, instead of by transaction date.
	EntryOrder bool
}

// TransactionStats counts a portfolio's ledger entries.
type TransactionStats struct {
	Total     int64      `json:"total"`
	Buys      int64      `json:"buys"`
	Sells     int64      `json:"sells"`
	Dividends int64      `json:"dividends"`
	Symbols   int64      `json:"symbols"`
	FirstDate *time.Time `json:"first_date,omitempty"`
	LastDate  *time.Time `json:"last_date,omitempty"`
}

// TransactionServicer defines the contract for ledger operations.
type TransactionServicer interface {
	CreateTransaction(userID, portfolioID string, in TransactionInput) (*models.Transaction, error)
	GetPortfolioTransactions(userID, portfolioID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionStats(userID, portfolioID string) (*TransactionStats, error)
}

// AllocationResult is the end-of-window allocation of a portfolio.
type AllocationResult struct {
	PortfolioID   string                   `json:"portfolio_id"`
	Timeframe     engine.Timeframe         `json:"timeframe"`
	AsOf          string                   `json:"as_of"`
	Allocation    []engine.AllocationEntry `json:"allocation"`
	Concentration engine.Concentration     `json:"concentration"`
}

// PortfolioMetrics are risk statistics over a portfolio's valuation series.
type PortfolioMetrics struct {
	PortfolioID string           `json:"portfolio_id"`
	Timeframe   engine.Timeframe `json:"timeframe"`
	risk.Metrics
}

// ValuationServicer reconstructs valuation history for stored portfolios
// and for raw records supplied by a caller.
type ValuationServicer interface {
	GetHistory(ctx context.Context, userID, portfolioID string, timeframe engine.Timeframe) (*engine.Valuation, error)
	GetAllocation(ctx context.Context, userID, portfolioID string, timeframe engine.Timeframe) (*AllocationResult, error)
	GetMetrics(ctx context.Context, userID, portfolioID string, timeframe engine.Timeframe, marketReturns []float64) (*PortfolioMetrics, error)
	ComputeValuation(records []engine.Record, timeframe string, strict bool) (*engine.Valuation, error)
	ComputeRisk(in risk.Input) risk.Metrics
}

// PortfolioSnapshotServicer records and serves daily cost-basis snapshots.
type PortfolioSnapshotServicer interface {
	ComputeAndRecordSnapshots(recordedAt time.Time) (int, error)
	GetSnapshots(userID, portfolioID string, from, to time.Time, page pagination.PageRequest) (*pagination.PageResponse[models.PortfolioSnapshot], error)
}
