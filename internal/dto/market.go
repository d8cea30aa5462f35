package dto

import "time"

// QuoteData is replaced wholesale on every successful poll.
type QuoteData struct {
	Symbol        string  `json:"symbol"`
	CurrentPrice  float64 `json:"current_price"`
	ChangePercent float64 `json:"change_percent"`
}

// PriceLevels are the support/resistance/risk thresholds of one horizon.
// A nil field means the backend has no value for it.
type PriceLevels struct {
	Support    *float64  `json:"support,omitempty"`
	Resistance *float64  `json:"resistance,omitempty"`
	Risk       *float64  `json:"risk,omitempty"`
	UpdatedAt  time.Time `json:"updated_at,omitempty"`
}

func (p PriceLevels) IsEmpty() bool {
	return p.Support == nil && p.Resistance == nil && p.Risk == nil
}

// RealtimePriceEntry is one row of GET /api/watchlist/realtime-prices.
type RealtimePriceEntry struct {
	Symbol        string       `json:"symbol"`
	CurrentPrice  *float64     `json:"current_price,omitempty"`
	ChangePercent *float64     `json:"change_percent,omitempty"`
	Short         *PriceLevels `json:"short,omitempty"`
	Swing         *PriceLevels `json:"swing,omitempty"`
	Long          *PriceLevels `json:"long,omitempty"`
}

func (e RealtimePriceEntry) Levels(h Horizon) *PriceLevels {
	switch h {
	case HorizonShort:
		return e.Short
	case HorizonLong:
		return e.Long
	default:
		return e.Swing
	}
}

type RealtimePricesResponse struct {
	Data []RealtimePriceEntry `json:"data"`
}

// SymbolPrices is one row of GET /api/watchlist/prices/realtime.
type SymbolPrices struct {
	Symbol string `json:"symbol"`
	PriceLevels
}

type SymbolPricesResponse struct {
	Period Horizon        `json:"period"`
	Data   []SymbolPrices `json:"data"`
}

type CalculatePricesRequest struct {
	Symbols []string `json:"symbols"`
	Force   bool     `json:"force"`
}

// CalculatePricesResponse covers both the synchronous shape (Results filled) and the
// asynchronous one (Status "processing", no results).
type CalculatePricesResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message,omitempty"`
	Results []RealtimePriceEntry `json:"results,omitempty"`
}

func (r *CalculatePricesResponse) IsAsync() bool {
	return len(r.Results) == 0
}

type QuotesResponse struct {
	Data []QuoteData `json:"data"`
}

type HorizonSignals struct {
	Short string `json:"short,omitempty"`
	Swing string `json:"swing,omitempty"`
	Long  string `json:"long,omitempty"`
}

type SymbolSignals struct {
	Symbol string `json:"symbol"`
	HorizonSignals
}

type SignalsResponse struct {
	Data []SymbolSignals `json:"data"`
}
