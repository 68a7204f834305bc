package models

// Portfolio groups the buy/sell ledger of one investment account
type Portfolio struct {
	Base
	UserID       string        `gorm:"type:uuid;not null;index" json:"user_id"`
	Name         string        `gorm:"not null" json:"name"`
	Description  string        `json:"description"`
	Transactions []Transaction `gorm:"foreignKey:PortfolioID" json:"transactions,omitempty"`
}
