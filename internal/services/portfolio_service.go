package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"valuator/internal/cache"
	apperrors "valuator/internal/errors"
	"valuator/internal/logger"
	"valuator/internal/models"
	"valuator/internal/pagination"
)

// portfolioService handles portfolio-related business logic.
type portfolioService struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewPortfolioService creates a new PortfolioServicer.
func NewPortfolioService(db *gorm.DB, c cache.Cache) PortfolioServicer {
	return &portfolioService{db: db, cache: c}
}

// CreatePortfolio creates an empty portfolio for the user
func (s *portfolioService) CreatePortfolio(userID, name, description string) (*models.Portfolio, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "portfolio name is required")
	}

	portfolio := &models.Portfolio{
		UserID:      userID,
		Name:        name,
		Description: description,
	}
	if err := s.db.Create(portfolio).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolio, nil
}

// GetUserPortfolios returns the user's portfolios, newest first
func (s *portfolioService) GetUserPortfolios(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error) {
	page.Defaults()

	base := s.db.Model(&models.Portfolio{}).Where("user_id = ?", userID).Session(&gorm.Session{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var portfolios []models.Portfolio
	if err := base.Order(page.OrderBy("created_at")).
		Scopes(pagination.Paginate(page)).
		Find(&portfolios).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(portfolios, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPortfolioByID retrieves a portfolio owned by the user
func (s *portfolioService) GetPortfolioByID(userID, portfolioID string) (*models.Portfolio, error) {
	var portfolio models.Portfolio
	if err := s.db.Where("id = ? AND user_id = ?", portfolioID, userID).First(&portfolio).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPortfolioNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &portfolio, nil
}

// UpdatePortfolio changes the name and/or description
func (s *portfolioService) UpdatePortfolio(userID, portfolioID string, name, description *string) (*models.Portfolio, error) {
	portfolio, err := s.GetPortfolioByID(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "portfolio name cannot be empty")
		}
		updates["name"] = trimmed
	}
	if description != nil {
		updates["description"] = *description
	}
	if len(updates) == 0 {
		return portfolio, nil
	}

	if err := s.db.Model(portfolio).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return portfolio, nil
}

// DeletePortfolio soft-deletes the portfolio together with its ledger
func (s *portfolioService) DeletePortfolio(userID, portfolioID string) error {
	portfolio, err := s.GetPortfolioByID(userID, portfolioID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("portfolio_id = ?", portfolio.ID).Delete(&models.Transaction{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(portfolio).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	invalidate(s.cache, portfolio.ID)
	return nil
}

// invalidate drops cached valuations for a portfolio. Failures only cost a
// stale read until the TTL expires, so they are logged, not returned.
func invalidate(c cache.Cache, portfolioID string) {
	if c == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Invalidate(ctx, portfolioID); err != nil {
		logger.Get().Warnw("Failed to invalidate valuation cache", "portfolio_id", portfolioID, "error", err)
	}
}
