package repository

import (
	"context"
	"net/http"

	"watchlist-sync/internal/dto"
)

func (g *remoteGateway) GetTasks(ctx context.Context) ([]dto.TaskStatus, error) {
	var resp dto.TasksResponse
	if err := g.call(ctx, http.MethodGet, "/api/analyze/tasks", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tasks, nil
}

func (g *remoteGateway) AnalyzeBackground(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	var resp dto.AnalyzeResponse
	if err := g.call(ctx, http.MethodPost, "/api/analyze/background", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) AnalyzeBatch(ctx context.Context, req dto.BatchAnalyzeRequest) (*dto.BatchAnalyzeResponse, error) {
	var resp dto.BatchAnalyzeResponse
	if err := g.call(ctx, http.MethodPost, "/api/analyze/batch", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) GetReports(ctx context.Context) ([]dto.ReportSummary, error) {
	var resp dto.ReportsResponse
	if err := g.call(ctx, http.MethodGet, "/api/reports", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Reports, nil
}

func (g *remoteGateway) GetReport(ctx context.Context, symbol string) (*dto.ReportDetail, error) {
	var resp dto.ReportDetail
	if err := g.call(ctx, http.MethodGet, symbolPath("/api/reports/%s", symbol), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
