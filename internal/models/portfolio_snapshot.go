package models

import (
	"time"

	"valuator/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PortfolioSnapshot is the cost-basis valuation of a portfolio on one day.
// Immutable time-series data, no Base embed and no soft deletes.
type PortfolioSnapshot struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	PortfolioID string          `gorm:"type:uuid;not null;uniqueIndex:idx_snapshot_portfolio_day" json:"portfolio_id"`
	RecordedAt  time.Time       `gorm:"not null;uniqueIndex:idx_snapshot_portfolio_day" json:"recorded_at"`
	CostBasis   decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"cost_basis"`
	Positions   int             `gorm:"not null" json:"positions"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *PortfolioSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	return nil
}
