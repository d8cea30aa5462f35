package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"watchlist-sync/internal/dto"
)

func symbolPath(format, symbol string) string {
	return fmt.Sprintf(format, url.PathEscape(symbol))
}

func (g *remoteGateway) GetWatchlist(ctx context.Context) ([]dto.WatchlistItem, error) {
	var items []dto.WatchlistItem
	if err := g.call(ctx, http.MethodGet, "/api/watchlist", nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (g *remoteGateway) AddWatchlist(ctx context.Context, req dto.AddWatchlistRequest) (*dto.WatchlistItem, error) {
	var item dto.WatchlistItem
	if err := g.call(ctx, http.MethodPost, "/api/watchlist", nil, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *remoteGateway) BatchAddWatchlist(ctx context.Context, req dto.BatchAddWatchlistRequest) (*dto.BatchAddWatchlistResponse, error) {
	var resp dto.BatchAddWatchlistResponse
	if err := g.call(ctx, http.MethodPost, "/api/watchlist/batch", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) UpdateWatchlist(ctx context.Context, symbol string, req dto.UpdateWatchlistRequest) (*dto.WatchlistItem, error) {
	var item dto.WatchlistItem
	if err := g.call(ctx, http.MethodPut, symbolPath("/api/watchlist/%s", symbol), nil, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (g *remoteGateway) DeleteWatchlist(ctx context.Context, symbol string) error {
	return g.call(ctx, http.MethodDelete, symbolPath("/api/watchlist/%s", symbol), nil, nil, nil)
}

func (g *remoteGateway) BatchDeleteWatchlist(ctx context.Context, symbols []string) error {
	return g.call(ctx, http.MethodPost, "/api/watchlist/batch-delete", nil, dto.SymbolsRequest{Symbols: symbols}, nil)
}

func (g *remoteGateway) ToggleStar(ctx context.Context, symbol string) (*dto.StarResponse, error) {
	var resp dto.StarResponse
	if err := g.call(ctx, http.MethodPut, symbolPath("/api/watchlist/%s/star", symbol), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
