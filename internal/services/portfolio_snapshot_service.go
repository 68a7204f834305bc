package services

import (
	"time"

	"gorm.io/gorm"

	"valuator/internal/engine"
	apperrors "valuator/internal/errors"
	"valuator/internal/logger"
	"valuator/internal/metrics"
	"valuator/internal/models"
	"valuator/internal/pagination"
)

// portfolioSnapshotService handles portfolio snapshot operations.
type portfolioSnapshotService struct {
	db               *gorm.DB
	portfolioService PortfolioServicer
	metrics          *metrics.Metrics
}

// NewPortfolioSnapshotService creates a new PortfolioSnapshotServicer. m may be nil.
func NewPortfolioSnapshotService(db *gorm.DB, portfolioService PortfolioServicer, m *metrics.Metrics) PortfolioSnapshotServicer {
	return &portfolioSnapshotService{db: db, portfolioService: portfolioService, metrics: m}
}

// ComputeAndRecordSnapshots stores the cost basis of every portfolio as of
// recordedAt's calendar date. Re-running for the same day overwrites.
func (s *portfolioSnapshotService) ComputeAndRecordSnapshots(recordedAt time.Time) (int, error) {
	day := engine.CalendarDate(recordedAt.UTC())

	var portfolioIDs []string
	if err := s.db.Model(&models.Portfolio{}).Order("id").Pluck("id", &portfolioIDs).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	count := 0
	for _, portfolioID := range portfolioIDs {
		snapshot, err := s.computeSnapshot(portfolioID, day)
		if err != nil {
			s.metrics.SnapshotRecorded(false)
			return count, err
		}

		var existing models.PortfolioSnapshot
		result := s.db.Where("portfolio_id = ? AND recorded_at = ?", portfolioID, day).First(&existing)
		if result.Error == nil {
			if err := s.db.Model(&existing).Updates(map[string]interface{}{
				"cost_basis": snapshot.CostBasis,
				"positions":  snapshot.Positions,
			}).Error; err != nil {
				s.metrics.SnapshotRecorded(false)
				return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		} else {
			if err := s.db.Create(snapshot).Error; err != nil {
				s.metrics.SnapshotRecorded(false)
				return count, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		s.metrics.SnapshotRecorded(true)
		count++
	}

	logger.Get().Infow("Recorded portfolio snapshots", "count", count, "day", day.Format(engine.DateLayout))
	return count, nil
}

// computeSnapshot replays a portfolio's whole ledger up to day. Oversells
// are tolerated so one bad ledger can't stop the run.
func (s *portfolioSnapshotService) computeSnapshot(portfolioID string, day time.Time) (*models.PortfolioSnapshot, error) {
	records, err := loadPortfolioRecords(s.db, portfolioID)
	if err != nil {
		return nil, err
	}

	ledger, rejected := engine.Normalize(records)
	if len(rejected) > 0 {
		s.metrics.RecordsRejected(len(rejected))
	}

	acc, err := engine.Replay(ledger.Window(time.Time{}, day), engine.Options{})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	positions := 0
	for _, h := range acc.Holdings() {
		if h.Shares.IsPositive() {
			positions++
		}
	}

	return &models.PortfolioSnapshot{
		PortfolioID: portfolioID,
		RecordedAt:  day,
		CostBasis:   acc.Total(),
		Positions:   positions,
	}, nil
}

// GetSnapshots returns paginated snapshots of a portfolio within a date range.
func (s *portfolioSnapshotService) GetSnapshots(
	userID, portfolioID string,
	from, to time.Time,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.PortfolioSnapshot], error) {
	if _, err := s.portfolioService.GetPortfolioByID(userID, portfolioID); err != nil {
		return nil, err
	}
	page.Defaults()

	var totalItems int64
	base := s.db.Model(&models.PortfolioSnapshot{}).
		Where("portfolio_id = ? AND recorded_at >= ? AND recorded_at <= ?", portfolioID, from.UTC(), to.UTC()).
		Session(&gorm.Session{})
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var snapshots []models.PortfolioSnapshot
	if err := base.Order(page.OrderBy("recorded_at")).Scopes(pagination.Paginate(page)).Find(&snapshots).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(snapshots, page.Page, page.PageSize, totalItems)
	return &result, nil
}
