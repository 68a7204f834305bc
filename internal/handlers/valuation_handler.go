package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"valuator/internal/engine"
	apperrors "valuator/internal/errors"
	"valuator/internal/export"
	"valuator/internal/services"
)

// ValuationHandler serves cost-basis history, allocation and risk for
// stored portfolios.
type ValuationHandler struct {
	valuationService services.ValuationServicer
	portfolioService services.PortfolioServicer
}

// NewValuationHandler creates a new ValuationHandler.
func NewValuationHandler(valuationService services.ValuationServicer, portfolioService services.PortfolioServicer) *ValuationHandler {
	return &ValuationHandler{valuationService: valuationService, portfolioService: portfolioService}
}

// TimeframeQuery selects the valuation window. Unknown tokens fall back to 1M.
type TimeframeQuery struct {
	Timeframe string `form:"timeframe"`
}

func (q TimeframeQuery) value() engine.Timeframe {
	return engine.ParseTimeframe(q.Timeframe)
}

// bindValuationRequest reads the common user, portfolio and timeframe inputs.
func bindValuationRequest(c *gin.Context) (userID, portfolioID string, tf engine.Timeframe, err error) {
	if userID, err = getUserID(c); err != nil {
		return
	}
	if portfolioID, err = parsePathID(c, "id"); err != nil {
		return
	}
	var q TimeframeQuery
	if bindErr := c.ShouldBindQuery(&q); bindErr != nil {
		err = apperrors.WithMessage(apperrors.ErrInvalidInput, bindErr.Error())
		return
	}
	tf = q.value()
	return
}

// GetHistory returns the daily cost-basis series of a portfolio
// @Summary     Valuation history
// @Description Daily cost basis (Σ shares × average cost) from the timeframe start through today, plus end-of-window allocation.
// @Tags        valuation
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       timeframe query string false "1D, 1W, 1M, 3M or 1Y; anything else is 1M"
// @Success     200 {object} engine.Valuation "Valuation history"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Failure     422 {object} ErrorResponse "Oversell with strict mode enabled"
// @Failure     502 {object} ErrorResponse "Transactions could not be loaded"
// @Router      /portfolios/{id}/history [get]
func (h *ValuationHandler) GetHistory(c *gin.Context) {
	userID, portfolioID, tf, err := bindValuationRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	v, err := h.valuationService.GetHistory(c.Request.Context(), userID, portfolioID, tf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, v)
}

// ExportHistory returns the valuation as an Excel workbook
// @Summary     Export valuation history
// @Tags        valuation
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       timeframe query string false "1D, 1W, 1M, 3M or 1Y; anything else is 1M"
// @Success     200 {file} file "Workbook with History and Allocation sheets"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/history/export [get]
func (h *ValuationHandler) ExportHistory(c *gin.Context) {
	userID, portfolioID, tf, err := bindValuationRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	portfolio, err := h.portfolioService.GetPortfolioByID(userID, portfolioID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	v, err := h.valuationService.GetHistory(c.Request.Context(), userID, portfolioID, tf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	data, err := export.WorkbookXLSX(portfolio.Name, v)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	filename := fmt.Sprintf("valuation-%s-%s.xlsx", tf, v.EndDate)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, data)
}

// GetAllocation returns per-symbol cost basis at the end of the window
// @Summary     Allocation
// @Tags        valuation
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Portfolio ID"
// @Param       timeframe query string false "1D, 1W, 1M, 3M or 1Y; anything else is 1M"
// @Success     200 {object} services.AllocationResult "Allocation"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/allocation [get]
func (h *ValuationHandler) GetAllocation(c *gin.Context) {
	userID, portfolioID, tf, err := bindValuationRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.valuationService.GetAllocation(c.Request.Context(), userID, portfolioID, tf)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetMetrics returns risk statistics over the valuation series
// @Summary     Risk metrics
// @Tags        valuation
// @Produce     json
// @Security    BearerAuth
// @Param       id             path  string true  "Portfolio ID"
// @Param       timeframe      query string false "1D, 1W, 1M, 3M or 1Y; anything else is 1M"
// @Param       market_returns query string false "Comma-separated benchmark returns for beta"
// @Success     200 {object} services.PortfolioMetrics "Risk metrics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Portfolio not found"
// @Router      /portfolios/{id}/metrics [get]
func (h *ValuationHandler) GetMetrics(c *gin.Context) {
	userID, portfolioID, tf, err := bindValuationRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	market, err := parseFloatList(c.Query("market_returns"))
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "market_returns must be comma-separated numbers"))
		return
	}

	result, err := h.valuationService.GetMetrics(c.Request.Context(), userID, portfolioID, tf, market)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseFloatList(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}
