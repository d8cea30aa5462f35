package http

import (
	"github.com/labstack/echo/v4"

	"watchlist-sync/internal/dto"
	"watchlist-sync/pkg/utils"
)

func (h *HttpAPIHandler) SetupWatchlist(base *echo.Group) {
	watchlist := base.Group("/watchlist")
	{
		watchlist.POST("", h.AddWatchlist)
		watchlist.POST("/batch", h.BatchAddWatchlist)
		watchlist.POST("/batch-delete", h.BatchDeleteWatchlist)
		watchlist.PUT("/:symbol", h.UpdateWatchlist)
		watchlist.DELETE("/:symbol", h.DeleteWatchlist)
		watchlist.PUT("/:symbol/star", h.ToggleStar)
	}
	base.PUT("/selection", h.UpdateSelection)
}

func (h *HttpAPIHandler) AddWatchlist(c echo.Context) error {
	var req dto.AddWatchlistRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	item, err := h.engine().Watchlist.Add(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Symbol added", item)
}

func (h *HttpAPIHandler) BatchAddWatchlist(c echo.Context) error {
	var req dto.BatchAddWatchlistRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	result, err := h.engine().Watchlist.BatchAdd(c.Request().Context(), req.Items)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Batch add finished", result)
}

func (h *HttpAPIHandler) UpdateWatchlist(c echo.Context) error {
	var req dto.UpdateWatchlistRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := h.engine().Watchlist.Edit(c.Request().Context(), c.Param("symbol"), req); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Symbol updated", nil)
}

// DeleteWatchlist returns as soon as the row is gone locally; the server call runs behind.
func (h *HttpAPIHandler) DeleteWatchlist(c echo.Context) error {
	if err := h.engine().Watchlist.Delete(c.Request().Context(), c.Param("symbol")); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Symbol removed", nil)
}

func (h *HttpAPIHandler) BatchDeleteWatchlist(c echo.Context) error {
	var req dto.SymbolsRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	watchlist := h.engine().Watchlist
	if c.QueryParam("confirm") == "true" {
		id, err := watchlist.ConfirmBatchDelete(c.Request().Context(), req.Symbols)
		if err != nil {
			return h.respondError(c, err)
		}
		return success(c, "Waiting for confirmation", map[string]string{"confirm_id": id})
	}
	if err := watchlist.BatchDelete(c.Request().Context(), req.Symbols); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Symbols removed", nil)
}

func (h *HttpAPIHandler) ToggleStar(c echo.Context) error {
	symbol := c.Param("symbol")
	if err := h.engine().Watchlist.ToggleStar(c.Request().Context(), symbol); err != nil {
		return h.respondError(c, err)
	}
	item, _ := h.engine().Watchlist.Get(symbol)
	return success(c, "Star updated", dto.StarResponse{Starred: utils.ToPointer(item.Starred)})
}

type selectionRequest struct {
	Symbols  []string `json:"symbols"`
	Selected bool     `json:"selected"`
	All      bool     `json:"all"`
	Clear    bool     `json:"clear"`
}

func (h *HttpAPIHandler) UpdateSelection(c echo.Context) error {
	var req selectionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	watchlist := h.engine().Watchlist
	switch {
	case req.Clear:
		watchlist.ClearSelection()
	case req.All:
		watchlist.SelectAll()
	default:
		watchlist.SetSelected(req.Selected, req.Symbols...)
	}
	return success(c, "Selection updated", watchlist.Selected())
}
