package http

import (
	"github.com/labstack/echo/v4"

	"watchlist-sync/internal/dto"
)

func (h *HttpAPIHandler) SetupAnalyze(base *echo.Group) {
	analyze := base.Group("/analyze")
	{
		analyze.POST("/batch", h.BatchAnalyze)
		analyze.POST("/:symbol", h.Analyze)
	}
	base.GET("/reports/:symbol", h.GetReport)
}

func (h *HttpAPIHandler) SetupMarket(base *echo.Group) {
	market := base.Group("/market")
	{
		market.POST("/:symbol/horizon", h.CycleHorizon)
		market.POST("/recalculate", h.RecalculatePrices)
		market.POST("/signals", h.RefreshSignals)
	}
}

type analyzeRequest struct {
	HoldingPeriod dto.Horizon `json:"holding_period" validate:"omitempty,oneof=short swing long"`
}

func (h *HttpAPIHandler) Analyze(c echo.Context) error {
	var req analyzeRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	task, err := h.engine().Analyze(c.Request().Context(), c.Param("symbol"), req.HoldingPeriod)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Analysis started", task)
}

func (h *HttpAPIHandler) BatchAnalyze(c echo.Context) error {
	var req dto.BatchAnalyzeRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	started, err := h.engine().BatchAnalyze(c.Request().Context(), req.Symbols, req.HoldingPeriod)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Batch analysis started", started)
}

func (h *HttpAPIHandler) GetReport(c echo.Context) error {
	report, err := h.engine().Reports.Detail(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "ok", report)
}

type horizonResponse struct {
	Symbol  string          `json:"symbol"`
	Horizon dto.Horizon     `json:"horizon"`
	Levels  dto.PriceLevels `json:"levels"`
}

func (h *HttpAPIHandler) CycleHorizon(c echo.Context) error {
	symbol := c.Param("symbol")
	market := h.engine().Market
	next, err := market.CycleHorizon(c.Request().Context(), symbol)
	if err != nil && next == "" {
		return h.respondError(c, err)
	}
	// a failed fetch still leaves the horizon switched
	h.engine().CheckSession(c.Request().Context(), err)
	return success(c, "Horizon switched", horizonResponse{
		Symbol:  symbol,
		Horizon: next,
		Levels:  market.GetPeriodPrices(symbol, next),
	})
}

func (h *HttpAPIHandler) RecalculatePrices(c echo.Context) error {
	if err := h.engine().Market.RecalculateAll(c.Request().Context()); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Recalculation requested", nil)
}

// RefreshSignals forces a signal fetch for every symbol.
func (h *HttpAPIHandler) RefreshSignals(c echo.Context) error {
	if err := h.engine().Market.SyncSignals(c.Request().Context(), true); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Signals refreshed", nil)
}
