package http

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"watchlist-sync/internal/view"
)

func (h *HttpAPIHandler) SetupView(base *echo.Group) {
	base.GET("/view", h.GetView)
	base.PUT("/view/preferences", h.UpdatePreferences)
	base.PUT("/view/page", h.SetPage)
	base.PUT("/visibility", h.SetVisibility)
}

type viewResponse struct {
	view.Page
	Query view.Query `json:"query"`
}

// GetView returns the current page. Query parameters override the stored preferences
// for this request only.
func (h *HttpAPIHandler) GetView(c echo.Context) error {
	q := h.engine().Preferences.Query()
	if v := c.QueryParam("search"); v != "" {
		q.Search = v
	}
	if v := c.QueryParam("period"); v != "" {
		q.PeriodFilter = v
	}
	if v := c.QueryParam("signal"); v != "" {
		q.SignalFilter = v
	}
	if v := view.SortField(c.QueryParam("sort")); v != "" && v.Valid() {
		q.SortField = v
	}
	if v := view.SortOrder(c.QueryParam("order")); v.Valid() {
		q.SortOrder = v
	}
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.QueryParam("page_size")); err == nil && view.ValidPageSize(size) {
		q.PageSize = size
	}

	page := h.engine().Page(q)
	q.Page = page.Page
	return success(c, "ok", viewResponse{Page: page, Query: q})
}

func (h *HttpAPIHandler) UpdatePreferences(c echo.Context) error {
	prefs := h.engine().Preferences.Get()
	if err := c.Bind(&prefs); err != nil {
		return badRequest(c, err)
	}
	if err := h.engine().Preferences.Update(c.Request().Context(), prefs); err != nil {
		return badRequest(c, err)
	}
	return success(c, "Preferences updated", h.engine().Preferences.Get())
}

type pageRequest struct {
	Page     int `json:"page" validate:"gte=0"`
	PageSize int `json:"page_size" validate:"omitempty,oneof=10 20 50 100"`
}

func (h *HttpAPIHandler) SetPage(c echo.Context) error {
	var req pageRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	prefs := h.engine().Preferences
	if req.PageSize != 0 {
		if err := prefs.SetPageSize(req.PageSize); err != nil {
			return badRequest(c, err)
		}
	}
	if req.Page != 0 {
		prefs.SetPage(req.Page)
	}
	return success(c, "Page updated", prefs.Query())
}

type visibilityRequest struct {
	Visible bool `json:"visible"`
}

func (h *HttpAPIHandler) SetVisibility(c echo.Context) error {
	var req visibilityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err)
	}
	h.engine().Visibility.Set(req.Visible)
	return success(c, "Visibility updated", req)
}
