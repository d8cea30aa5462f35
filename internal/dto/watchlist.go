package dto

// WatchlistItem is one tracked symbol as served by /api/watchlist.
type WatchlistItem struct {
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name,omitempty"`
	Type          string  `json:"type,omitempty"`
	Position      float64 `json:"position"`
	CostPrice     float64 `json:"cost_price"`
	Starred       int     `json:"starred"`
	HoldingPeriod Horizon `json:"holding_period,omitempty"`

	ShortSupport    *float64 `json:"short_support,omitempty"`
	ShortResistance *float64 `json:"short_resistance,omitempty"`
	ShortRisk       *float64 `json:"short_risk,omitempty"`
	ShortSignal     string   `json:"short_signal,omitempty"`

	SwingSupport    *float64 `json:"swing_support,omitempty"`
	SwingResistance *float64 `json:"swing_resistance,omitempty"`
	SwingRisk       *float64 `json:"swing_risk,omitempty"`
	SwingSignal     string   `json:"swing_signal,omitempty"`

	LongSupport    *float64 `json:"long_support,omitempty"`
	LongResistance *float64 `json:"long_resistance,omitempty"`
	LongRisk       *float64 `json:"long_risk,omitempty"`
	LongSignal     string   `json:"long_signal,omitempty"`

	// Single-horizon fields written by older analyses. Read as the swing fallback.
	Support    *float64 `json:"support,omitempty"`
	Resistance *float64 `json:"resistance,omitempty"`
	Risk       *float64 `json:"risk,omitempty"`
}

func (w *WatchlistItem) IsStarred() bool {
	return w.Starred != 0
}

// Levels returns the persisted price levels for h.
func (w *WatchlistItem) Levels(h Horizon) PriceLevels {
	switch h {
	case HorizonShort:
		return PriceLevels{Support: w.ShortSupport, Resistance: w.ShortResistance, Risk: w.ShortRisk}
	case HorizonLong:
		return PriceLevels{Support: w.LongSupport, Resistance: w.LongResistance, Risk: w.LongRisk}
	default:
		return PriceLevels{Support: w.SwingSupport, Resistance: w.SwingResistance, Risk: w.SwingRisk}
	}
}

// LegacyLevels returns the single-horizon fields.
func (w *WatchlistItem) LegacyLevels() PriceLevels {
	return PriceLevels{Support: w.Support, Resistance: w.Resistance, Risk: w.Risk}
}

// MergeLevels copies only the non-nil fields of pl into horizon h.
// Reports whether anything changed.
func (w *WatchlistItem) MergeLevels(h Horizon, pl PriceLevels) bool {
	var support, resistance, risk **float64
	switch h {
	case HorizonShort:
		support, resistance, risk = &w.ShortSupport, &w.ShortResistance, &w.ShortRisk
	case HorizonLong:
		support, resistance, risk = &w.LongSupport, &w.LongResistance, &w.LongRisk
	default:
		support, resistance, risk = &w.SwingSupport, &w.SwingResistance, &w.SwingRisk
	}
	changed := mergeFloat(support, pl.Support)
	changed = mergeFloat(resistance, pl.Resistance) || changed
	changed = mergeFloat(risk, pl.Risk) || changed
	return changed
}

func mergeFloat(dst **float64, src *float64) bool {
	if src == nil {
		return false
	}
	if *dst != nil && **dst == *src {
		return false
	}
	v := *src
	*dst = &v
	return true
}

func (w *WatchlistItem) Signal(h Horizon) string {
	switch h {
	case HorizonShort:
		return w.ShortSignal
	case HorizonLong:
		return w.LongSignal
	default:
		return w.SwingSignal
	}
}

// MergeSignals copies non-empty signals. Reports whether anything changed.
func (w *WatchlistItem) MergeSignals(s HorizonSignals) bool {
	changed := false
	for _, pair := range []struct {
		dst *string
		src string
	}{{&w.ShortSignal, s.Short}, {&w.SwingSignal, s.Swing}, {&w.LongSignal, s.Long}} {
		if pair.src != "" && *pair.dst != pair.src {
			*pair.dst = pair.src
			changed = true
		}
	}
	return changed
}

// MissingSignal reports whether at least one horizon has no signal yet.
func (w *WatchlistItem) MissingSignal() bool {
	return w.ShortSignal == "" || w.SwingSignal == "" || w.LongSignal == ""
}

type AddWatchlistRequest struct {
	Symbol    string   `json:"symbol" validate:"required,max=20"`
	Name      string   `json:"name,omitempty"`
	Type      string   `json:"type,omitempty" validate:"omitempty,oneof=stock etf fund lof"`
	Position  *float64 `json:"position,omitempty" validate:"omitempty,gte=0"`
	CostPrice *float64 `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
}

type BatchAddWatchlistRequest struct {
	Items []AddWatchlistRequest `json:"items" validate:"required,min=1,dive"`
}

type BatchAddWatchlistResponse struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped"`
}

type UpdateWatchlistRequest struct {
	Position      *float64 `json:"position,omitempty" validate:"omitempty,gte=0"`
	CostPrice     *float64 `json:"cost_price,omitempty" validate:"omitempty,gte=0"`
	HoldingPeriod Horizon  `json:"holding_period,omitempty" validate:"omitempty,oneof=short swing long"`
}

type SymbolsRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1"`
}

type StarResponse struct {
	Starred *int `json:"starred,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
