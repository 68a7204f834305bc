package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"valuator/internal/cache"
	apperrors "valuator/internal/errors"
	"valuator/internal/models"
	"valuator/internal/pagination"
)

// transactionService handles ledger operations.
type transactionService struct {
	db               *gorm.DB
	portfolioService PortfolioServicer
	cache            cache.Cache
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, portfolioService PortfolioServicer, c cache.Cache) TransactionServicer {
	return &transactionService{
		db:               db,
		portfolioService: portfolioService,
		cache:            c,
	}
}

// CreateTransaction appends an entry to a portfolio's ledger
func (s *transactionService) CreateTransaction(userID, portfolioID string, in TransactionInput) (*models.Transaction, error) {
	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "symbol is required")
	}

	txType := models.TransactionType(strings.ToUpper(string(in.Type)))
	switch txType {
	case models.TransactionTypeBuy, models.TransactionTypeSell, models.TransactionTypeDividend:
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}

	if txType != models.TransactionTypeDividend && !in.Shares.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "shares must be greater than zero")
	}
	if in.Price.IsNegative() || in.Fees.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "price and fees cannot be negative")
	}

	total := in.Shares.Mul(in.Price)
	if in.TotalAmount != nil {
		total = *in.TotalAmount
	}
	if total.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total_amount cannot be negative")
	}

	// Stored in UTC; the UTC calendar date is the one replayed.
	date := time.Now().UTC()
	if in.Date != nil && !in.Date.IsZero() {
		date = in.Date.UTC()
	}

	portfolio, err := s.portfolioService.GetPortfolioByID(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		PortfolioID:     portfolio.ID,
		Symbol:          symbol,
		Type:            txType,
		Shares:          in.Shares,
		Price:           in.Price,
		TotalAmount:     total,
		Fees:            in.Fees,
		TransactionDate: date,
		Note:            in.Note,
	}
	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invalidate(s.cache, portfolio.ID)
	return transaction, nil
}

// GetPortfolioTransactions retrieves a paginated, filtered list of a portfolio's transactions
func (s *transactionService) GetPortfolioTransactions(userID, portfolioID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.portfolioService.GetPortfolioByID(userID, portfolioID); err != nil {
		return nil, err
	}

	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolioID)
	base = applyTransactionFilters(base, filter).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	column := "transaction_date"
	if filter.EntryOrder {
		column = "created_at"
	}

	var transactions []models.Transaction
	if err := base.Order(page.OrderBy(column)).
		Order(page.OrderBy("id")).
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", f.ToDate.UTC())
	}
	if f.Type != nil {
		q = q.Where("type = ?", strings.ToUpper(string(*f.Type)))
	}
	if f.Symbol != "" {
		q = q.Where("symbol = ?", strings.ToUpper(strings.TrimSpace(f.Symbol)))
	}
	return q
}

// GetTransactionByID retrieves a transaction from one of the user's portfolios
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.db.Joins("JOIN portfolios ON portfolios.id = transactions.portfolio_id AND portfolios.deleted_at IS NULL").
		Where("transactions.id = ? AND portfolios.user_id = ?", transactionID, userID).
		First(&transaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// DeleteTransaction removes a ledger entry
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	invalidate(s.cache, transaction.PortfolioID)
	return nil
}

type typeCount struct {
	Type  models.TransactionType
	Count int64
}

// GetTransactionStats counts a portfolio's transactions by type
func (s *transactionService) GetTransactionStats(userID, portfolioID string) (*TransactionStats, error) {
	if _, err := s.portfolioService.GetPortfolioByID(userID, portfolioID); err != nil {
		return nil, err
	}

	base := s.db.Model(&models.Transaction{}).Where("portfolio_id = ?", portfolioID).Session(&gorm.Session{})

	var counts []typeCount
	if err := base.Select("type, COUNT(*) AS count").Group("type").Scan(&counts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	stats := &TransactionStats{}
	for _, c := range counts {
		stats.Total += c.Count
		switch c.Type {
		case models.TransactionTypeBuy:
			stats.Buys = c.Count
		case models.TransactionTypeSell:
			stats.Sells = c.Count
		case models.TransactionTypeDividend:
			stats.Dividends = c.Count
		}
	}
	if stats.Total == 0 {
		return stats, nil
	}

	if err := base.Distinct("symbol").Count(&stats.Symbols).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var first, last models.Transaction
	if err := base.Order("transaction_date ASC").Limit(1).Find(&first).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := base.Order("transaction_date DESC").Limit(1).Find(&last).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	stats.FirstDate = &first.TransactionDate
	stats.LastDate = &last.TransactionDate

	return stats, nil
}
