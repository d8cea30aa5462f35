package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"watchlist-sync/internal/dto"
)

func (h *HttpAPIHandler) SetupNotification(base *echo.Group) {
	notification := base.Group("/notification")
	{
		notification.GET("", h.GetNotification)
		notification.POST("/confirm", h.ResolveConfirm)
		notification.DELETE("", h.DismissAlert)
	}
}

func (h *HttpAPIHandler) GetNotification(c echo.Context) error {
	return success(c, "ok", h.engine().Notifications.Snapshot())
}

type confirmRequest struct {
	ID       string `json:"id" validate:"required"`
	Accepted bool   `json:"accepted"`
}

func (h *HttpAPIHandler) ResolveConfirm(c echo.Context) error {
	var req confirmRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	if !h.engine().Notifications.Resolve(req.ID, req.Accepted) {
		return c.JSON(http.StatusNotFound, dto.NewBaseResponse(http.StatusNotFound, "Confirmation is no longer pending", nil))
	}
	return success(c, "ok", nil)
}

func (h *HttpAPIHandler) DismissAlert(c echo.Context) error {
	h.engine().Notifications.Dismiss()
	return success(c, "ok", nil)
}
