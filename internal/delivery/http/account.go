package http

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"watchlist-sync/internal/dto"
)

func (h *HttpAPIHandler) SetupAccount(base *echo.Group) {
	settings := base.Group("/settings")
	{
		settings.GET("", h.GetSettings)
		settings.PUT("", h.SaveSettings)
		settings.POST("/test-push", h.TestPush)
	}

	reminders := base.Group("/reminders")
	{
		reminders.GET("", h.ListReminders)
		reminders.POST("", h.CreateReminder)
		reminders.POST("/batch", h.BatchCreateReminders)
		reminders.DELETE("/:id", h.DeleteReminder)
	}
}

func (h *HttpAPIHandler) GetSettings(c echo.Context) error {
	settings, err := h.service.Settings.Get(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "ok", settings)
}

func (h *HttpAPIHandler) SaveSettings(c echo.Context) error {
	var req dto.UserSettings
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	settings, err := h.service.Settings.Save(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Settings saved", settings)
}

func (h *HttpAPIHandler) TestPush(c echo.Context) error {
	if err := h.service.Settings.TestPush(c.Request().Context()); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Test push sent", nil)
}

func (h *HttpAPIHandler) ListReminders(c echo.Context) error {
	reminders, err := h.service.Reminders.List(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "ok", reminders)
}

func (h *HttpAPIHandler) CreateReminder(c echo.Context) error {
	var req dto.ReminderItem
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	reminder, err := h.service.Reminders.Create(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Reminder created", reminder)
}

func (h *HttpAPIHandler) BatchCreateReminders(c echo.Context) error {
	var req dto.BatchReminderRequest
	if err := h.bind(c, &req); err != nil {
		return badRequest(c, err)
	}
	reminders, err := h.service.Reminders.BatchCreate(c.Request().Context(), req)
	if err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Reminders created", reminders)
}

func (h *HttpAPIHandler) DeleteReminder(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return badRequest(c, err)
	}
	if err := h.service.Reminders.Delete(c.Request().Context(), id); err != nil {
		return h.respondError(c, err)
	}
	return success(c, "Reminder deleted", nil)
}
