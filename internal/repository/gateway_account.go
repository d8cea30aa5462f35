package repository

import (
	"context"
	"fmt"
	"net/http"

	"watchlist-sync/internal/dto"
)

func (g *remoteGateway) DashboardInit(ctx context.Context) (*dto.DashboardInit, error) {
	var resp dto.DashboardInit
	if err := g.call(ctx, http.MethodGet, "/api/dashboard/init", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) GetSettings(ctx context.Context) (*dto.UserSettings, error) {
	var resp dto.UserSettings
	if err := g.call(ctx, http.MethodGet, "/api/user/settings", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) SaveSettings(ctx context.Context, settings dto.UserSettings) (*dto.UserSettings, error) {
	var resp dto.UserSettings
	if err := g.call(ctx, http.MethodPost, "/api/user/settings", nil, settings, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) TestPush(ctx context.Context) error {
	return g.call(ctx, http.MethodPost, "/api/user/test-push", nil, struct{}{}, nil)
}

func (g *remoteGateway) GetReminders(ctx context.Context) ([]dto.ReminderItem, error) {
	var resp dto.RemindersResponse
	if err := g.call(ctx, http.MethodGet, "/api/reminders", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reminders, nil
}

func (g *remoteGateway) CreateReminder(ctx context.Context, item dto.ReminderItem) (*dto.ReminderItem, error) {
	var resp dto.ReminderItem
	if err := g.call(ctx, http.MethodPost, "/api/reminders", nil, item, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) BatchCreateReminders(ctx context.Context, req dto.BatchReminderRequest) ([]dto.ReminderItem, error) {
	var resp dto.RemindersResponse
	if err := g.call(ctx, http.MethodPost, "/api/reminders/batch", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Reminders, nil
}

func (g *remoteGateway) DeleteReminder(ctx context.Context, id int64) error {
	return g.call(ctx, http.MethodDelete, fmt.Sprintf("/api/reminders/%d", id), nil, nil, nil)
}
