package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "BUY"
	TransactionTypeSell TransactionType = "SELL"
	// Dividends are stored but never replayed into holdings.
	TransactionTypeDividend TransactionType = "DIVIDEND"
)

// Transaction is one immutable entry of a portfolio ledger
type Transaction struct {
	Base
	PortfolioID     string          `gorm:"type:uuid;not null;index:idx_transactions_portfolio_date" json:"portfolio_id"`
	Symbol          string          `gorm:"size:20;not null;index" json:"symbol"`
	Type            TransactionType `gorm:"size:10;not null" json:"type"`
	Shares          decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"shares"`
	Price           decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"price"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"total_amount"`
	Fees            decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"fees"`
	TransactionDate time.Time       `gorm:"not null;index:idx_transactions_portfolio_date" json:"transaction_date"`
	Note            string          `json:"note,omitempty"`
}
