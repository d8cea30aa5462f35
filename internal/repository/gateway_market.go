package repository

import (
	"context"
	"net/http"
	"strings"

	"watchlist-sync/internal/dto"
)

func (g *remoteGateway) GetQuotes(ctx context.Context, symbols []string) ([]dto.QuoteData, error) {
	var resp dto.QuotesResponse
	query := map[string]string{"symbols": strings.Join(symbols, ",")}
	if err := g.call(ctx, http.MethodGet, "/api/quotes", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetRealtimePrices is the lightweight bulk endpoint: quotes plus whatever
// horizon levels the backend has cached.
func (g *remoteGateway) GetRealtimePrices(ctx context.Context) ([]dto.RealtimePriceEntry, error) {
	var resp dto.RealtimePricesResponse
	if err := g.call(ctx, http.MethodGet, "/api/watchlist/realtime-prices", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (g *remoteGateway) GetSymbolPrices(ctx context.Context, symbols []string, period dto.Horizon) ([]dto.SymbolPrices, error) {
	var resp dto.SymbolPricesResponse
	query := map[string]string{
		"symbols": strings.Join(symbols, ","),
		"period":  string(period),
	}
	if err := g.call(ctx, http.MethodGet, "/api/watchlist/prices/realtime", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (g *remoteGateway) CalculatePrices(ctx context.Context, req dto.CalculatePricesRequest) (*dto.CalculatePricesResponse, error) {
	var resp dto.CalculatePricesResponse
	if err := g.call(ctx, http.MethodPost, "/api/watchlist/calculate-prices", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (g *remoteGateway) GetSignals(ctx context.Context, symbols []string) ([]dto.SymbolSignals, error) {
	var resp dto.SignalsResponse
	query := map[string]string{"symbols": strings.Join(symbols, ",")}
	if err := g.call(ctx, http.MethodGet, "/api/signals/realtime", query, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
