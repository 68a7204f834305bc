package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"valuator/internal/engine"
	apperrors "valuator/internal/errors"
	"valuator/internal/risk"
	"valuator/internal/services"
)

// maxAnalyticsRecords bounds a single stateless valuation request.
const maxAnalyticsRecords = 10000

// AnalyticsHandler runs the engine over caller-supplied data without
// touching storage.
type AnalyticsHandler struct {
	valuationService services.ValuationServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(valuationService services.ValuationServicer) *AnalyticsHandler {
	return &AnalyticsHandler{valuationService: valuationService}
}

// ValuationRequest carries raw transaction records. Unknown timeframes fall
// back to 1M; malformed records are reported in "rejected".
type ValuationRequest struct {
	Transactions   []engine.Record `json:"transactions" binding:"required"`
	Timeframe      string          `json:"timeframe"`
	StrictOversell bool            `json:"strict_oversell"`
}

// ComputeValuation values an ad-hoc ledger
// @Summary     Value raw transactions
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ValuationRequest true "Transactions and timeframe"
// @Success     200 {object} engine.Valuation "Valuation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Oversell with strict mode enabled"
// @Router      /analytics/valuation [post]
func (h *AnalyticsHandler) ComputeValuation(c *gin.Context) {
	var req ValuationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if len(req.Transactions) > maxAnalyticsRecords {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "too many transactions"))
		return
	}

	v, err := h.valuationService.ComputeValuation(req.Transactions, req.Timeframe, req.StrictOversell)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

// ComputeRisk derives risk metrics from a value or return series
// @Summary     Risk metrics for a series
// @Description Sharpe uses the raw risk-free rate; beta is 1 without comparable market returns.
// @Tags        analytics
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body risk.Input true "Series"
// @Success     200 {object} risk.Metrics "Risk metrics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /analytics/risk [post]
func (h *AnalyticsHandler) ComputeRisk(c *gin.Context) {
	var in risk.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if len(in.Values) == 0 && len(in.Returns) == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "values or returns is required"))
		return
	}
	if in.ConfidenceLevel != nil && (*in.ConfidenceLevel <= 0 || *in.ConfidenceLevel >= 1) {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "confidence_level must be between 0 and 1"))
		return
	}

	c.JSON(http.StatusOK, h.valuationService.ComputeRisk(in))
}
