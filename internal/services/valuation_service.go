package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"valuator/internal/cache"
	"valuator/internal/engine"
	apperrors "valuator/internal/errors"
	"valuator/internal/logger"
	"valuator/internal/metrics"
	"valuator/internal/models"
	"valuator/internal/risk"
)

// ValuationOptions configure a ValuationServicer.
type ValuationOptions struct {
	StrictOversell bool
	// Now is the clock "today" is taken from; defaults to time.Now.
	Now func() time.Time
}

// valuationService runs the engine over stored ledgers.
type valuationService struct {
	db               *gorm.DB
	portfolioService PortfolioServicer
	cache            cache.Cache
	metrics          *metrics.Metrics
	strict           bool
	now              func() time.Time
}

// NewValuationService creates a new ValuationServicer. c and m may be nil.
func NewValuationService(db *gorm.DB, portfolioService PortfolioServicer, c cache.Cache, m *metrics.Metrics, opts ValuationOptions) ValuationServicer {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &valuationService{
		db:               db,
		portfolioService: portfolioService,
		cache:            c,
		metrics:          m,
		strict:           opts.StrictOversell,
		now:              now,
	}
}

// GetHistory returns the daily cost-basis series and allocation of a
// portfolio for the timeframe ending today.
func (s *valuationService) GetHistory(ctx context.Context, userID, portfolioID string, timeframe engine.Timeframe) (*engine.Valuation, error) {
	portfolio, err := s.portfolioService.GetPortfolioByID(userID, portfolioID)
	if err != nil {
		return nil, err
	}

	tf := engine.ParseTimeframe(string(timeframe))
	today := engine.CalendarDate(s.now().UTC())
	key := fmt.Sprintf("history:%s:%s:%t", tf, today.Format(engine.DateLayout), s.strict)

	if v, ok := s.cached(ctx, portfolio.ID, key); ok {
		return v, nil
	}

	records, err := loadPortfolioRecords(s.db, portfolio.ID)
	if err != nil {
		return nil, err
	}

	v, err := s.run(records, tf, today, s.strict)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, portfolio.ID, key, v); err != nil {
			logger.Get().Warnw("Failed to cache valuation", "portfolio_id", portfolio.ID, "error", err)
		}
	}
	return v, nil
}

// GetAllocation returns the end-of-window allocation; it shares the history cache.
func (s *valuationService) GetAllocation(ctx context.Context, userID, portfolioID string, timeframe engine.Timeframe) (*AllocationResult, error) {
	v, err := s.GetHistory(ctx, userID, portfolioID, timeframe)
	if err != nil {
		return nil, err
	}
	return &AllocationResult{
		PortfolioID:   portfolioID,
		Timeframe:     v.Timeframe,
		AsOf:          v.EndDate,
		Allocation:    v.Allocation,
		Concentration: v.Concentration,
	}, nil
}

// GetMetrics derives risk statistics from the valuation series. Without
// marketReturns beta is the neutral 1.
func (s *valuationService) GetMetrics(ctx context.Context, userID, portfolioID string, timeframe engine.Timeframe, marketReturns []float64) (*PortfolioMetrics, error) {
	v, err := s.GetHistory(ctx, userID, portfolioID, timeframe)
	if err != nil {
		return nil, err
	}

	values := engine.Values(v.Series)
	return &PortfolioMetrics{
		PortfolioID: portfolioID,
		Timeframe:   v.Timeframe,
		Metrics:     risk.Compute(risk.Input{Values: values, MarketReturns: marketReturns}),
	}, nil
}

// ComputeValuation runs the engine over caller-supplied records. strict
// enables oversell rejection on top of the service default.
func (s *valuationService) ComputeValuation(records []engine.Record, timeframe string, strict bool) (*engine.Valuation, error) {
	today := engine.CalendarDate(s.now().UTC())
	return s.run(records, engine.ParseTimeframe(timeframe), today, strict || s.strict)
}

// ComputeRisk is risk.Compute behind the service boundary.
func (s *valuationService) ComputeRisk(in risk.Input) risk.Metrics {
	return risk.Compute(in)
}

func (s *valuationService) run(records []engine.Record, tf engine.Timeframe, today time.Time, strict bool) (*engine.Valuation, error) {
	start := time.Now()
	ledger, rejected := engine.Normalize(records)
	v, err := engine.ValuateLedger(ledger, tf, today, engine.Options{StrictOversell: strict}, rejected)
	s.metrics.ObserveValuation(string(tf), time.Since(start))
	if err != nil {
		var oe *engine.OversellError
		if errors.As(err, &oe) {
			return nil, apperrors.Wrap(apperrors.WithMessage(apperrors.ErrOversell, oe.Error()), err)
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if len(rejected) > 0 {
		s.metrics.RecordsRejected(len(rejected))
		logger.Get().Debugw("Skipped invalid transaction records", "count", len(rejected))
	}
	return v, nil
}

func (s *valuationService) cached(ctx context.Context, portfolioID, key string) (*engine.Valuation, bool) {
	if s.cache == nil {
		return nil, false
	}
	var v engine.Valuation
	hit, err := s.cache.Get(ctx, portfolioID, key, &v)
	if err != nil {
		logger.Get().Warnw("Valuation cache read failed", "portfolio_id", portfolioID, "error", err)
		return nil, false
	}
	if !hit {
		s.metrics.CacheMiss()
		return nil, false
	}
	s.metrics.CacheHit()
	return &v, true
}

// loadPortfolioRecords reads a ledger in insertion order. Dividends carry no
// position change and are left out.
func loadPortfolioRecords(db *gorm.DB, portfolioID string) ([]engine.Record, error) {
	var transactions []models.Transaction
	if err := db.Where("portfolio_id = ? AND type IN ?", portfolioID,
		[]models.TransactionType{models.TransactionTypeBuy, models.TransactionTypeSell}).
		Order("created_at ASC").Order("id ASC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrTransactionFetch, err)
	}
	return toRecords(transactions), nil
}

// toRecords converts stored transactions into engine input.
func toRecords(transactions []models.Transaction) []engine.Record {
	records := make([]engine.Record, len(transactions))
	for i := range transactions {
		t := &transactions[i]
		shares, price, total, fees := t.Shares, t.Price, t.TotalAmount, t.Fees
		records[i] = engine.Record{
			ID:              t.ID,
			PortfolioID:     t.PortfolioID,
			Symbol:          t.Symbol,
			Type:            string(t.Type),
			Shares:          &shares,
			Price:           &price,
			TotalAmount:     &total,
			Fees:            &fees,
			TransactionDate: t.TransactionDate.UTC().Format(time.RFC3339Nano),
			Note:            t.Note,
			CreatedAt:       t.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return records
}

