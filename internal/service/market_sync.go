package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"watchlist-sync/config"
	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/ratelimit"
	"watchlist-sync/pkg/utils"
)

// MarketDataSync keeps quotes, horizon price levels and signals in step with the backend.
type MarketDataSync struct {
	mu       sync.RWMutex
	quotes   map[string]dto.QuoteData
	horizons map[string]dto.Horizon
	inflight map[string]bool

	gateway   repository.MarketGateway
	watchlist *WatchlistStore
	cache     *PriceLevelCache
	notifier  *NotificationCenter
	clock     utils.Clock
	polling   config.Polling
	log       *logger.Logger
	bc        broadcaster
}

func NewMarketDataSync(
	gateway repository.MarketGateway,
	watchlist *WatchlistStore,
	cache *PriceLevelCache,
	notifier *NotificationCenter,
	clock utils.Clock,
	polling config.Polling,
	log *logger.Logger,
) *MarketDataSync {
	return &MarketDataSync{
		quotes:    make(map[string]dto.QuoteData),
		horizons:  make(map[string]dto.Horizon),
		inflight:  make(map[string]bool),
		gateway:   gateway,
		watchlist: watchlist,
		cache:     cache,
		notifier:  notifier,
		clock:     clock,
		polling:   polling,
		log:       log.Component("market"),
	}
}

func (m *MarketDataSync) Subscribe(fn func()) func() {
	return m.bc.Subscribe(fn)
}

func (m *MarketDataSync) InSession() bool {
	return utils.IsTradingSession(m.clock())
}

// QuoteInterval is the quote poll cadence for the current session state.
func (m *MarketDataSync) QuoteInterval() time.Duration {
	if m.InSession() {
		return m.polling.QuoteSessionInterval
	}
	return m.polling.QuoteIdleInterval
}

func (m *MarketDataSync) SignalInterval() time.Duration {
	if m.InSession() {
		return m.polling.SignalSessionInterval
	}
	return m.polling.SignalIdleInterval
}

// LoadQuotes replaces the quote map.
func (m *MarketDataSync) LoadQuotes(quotes []dto.QuoteData) {
	next := make(map[string]dto.QuoteData, len(quotes))
	for _, q := range quotes {
		q.Symbol = utils.NormalizeSymbol(q.Symbol)
		next[q.Symbol] = q
	}
	m.mu.Lock()
	m.quotes = next
	m.mu.Unlock()
	m.bc.notify()
}

func (m *MarketDataSync) Quote(symbol string) (dto.QuoteData, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quotes[utils.NormalizeSymbol(symbol)]
	return q, ok
}

func (m *MarketDataSync) Quotes() map[string]dto.QuoteData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]dto.QuoteData, len(m.quotes))
	for k, v := range m.quotes {
		out[k] = v
	}
	return out
}

// SyncQuotes runs one bulk quote tick. The quote map is replaced; horizon levels are
// merged only where the server sent a value.
func (m *MarketDataSync) SyncQuotes(ctx context.Context) error {
	entries, err := m.gateway.GetRealtimePrices(ctx)
	if err != nil {
		m.log.DebugContext(ctx, "Quote sync failed", logger.ErrorField(err))
		return err
	}

	quotes := make([]dto.QuoteData, 0, len(entries))
	for _, entry := range entries {
		if entry.CurrentPrice == nil {
			continue
		}
		q := dto.QuoteData{Symbol: entry.Symbol, CurrentPrice: *entry.CurrentPrice}
		if entry.ChangePercent != nil {
			q.ChangePercent = *entry.ChangePercent
		}
		quotes = append(quotes, q)
	}
	m.LoadQuotes(quotes)
	m.applyLevels(entries)
	return nil
}

func (m *MarketDataSync) applyLevels(entries []dto.RealtimePriceEntry) int {
	updated := 0
	for _, entry := range entries {
		for _, h := range dto.Horizons {
			levels := entry.Levels(h)
			if levels == nil || levels.IsEmpty() {
				continue
			}
			m.cache.Merge(entry.Symbol, h, *levels)
			m.watchlist.MergeLevels(entry.Symbol, h, *levels)
			updated++
		}
	}
	if updated > 0 {
		m.bc.notify()
	}
	return updated
}

// RefreshQuotes fetches quotes for a few symbols and merges them into the map until the
// next bulk tick replaces it.
func (m *MarketDataSync) RefreshQuotes(ctx context.Context, symbols ...string) error {
	if len(symbols) == 0 {
		return nil
	}
	quotes, err := m.gateway.GetQuotes(ctx, symbols)
	if err != nil {
		m.log.WarnContext(ctx, "Failed to fetch quotes", logger.StringsField("symbols", symbols), logger.ErrorField(err))
		return err
	}
	m.mu.Lock()
	for _, q := range quotes {
		q.Symbol = utils.NormalizeSymbol(q.Symbol)
		m.quotes[q.Symbol] = q
	}
	m.mu.Unlock()
	m.bc.notify()
	return nil
}

// SyncSignals fetches signals in paced batches. Unless forced, only symbols missing a
// signal on some horizon are requested. A failed batch does not stop the rest.
func (m *MarketDataSync) SyncSignals(ctx context.Context, force bool) error {
	var symbols []string
	for _, item := range m.watchlist.Snapshot() {
		if force || item.MissingSignal() {
			symbols = append(symbols, item.Symbol)
		}
	}
	if len(symbols) == 0 {
		return nil
	}

	pacer := ratelimit.NewPacer(m.polling.SignalBatchDelay)
	var firstErr error
	for _, batch := range utils.Chunk(symbols, m.polling.SignalBatchSize) {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		signals, err := m.gateway.GetSignals(ctx, batch)
		if err != nil {
			m.log.WarnContext(ctx, "Signal batch failed", logger.StringsField("symbols", batch), logger.ErrorField(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, s := range signals {
			m.watchlist.MergeSignals(s.Symbol, s.HorizonSignals)
		}
	}
	return firstErr
}

// DisplayHorizon is the horizon a row currently shows: the cycled override, else the
// item's holding period.
func (m *MarketDataSync) DisplayHorizon(symbol string) dto.Horizon {
	symbol = utils.NormalizeSymbol(symbol)
	m.mu.RLock()
	h, ok := m.horizons[symbol]
	m.mu.RUnlock()
	if ok {
		return h
	}
	if item, found := m.watchlist.Get(symbol); found && item.HoldingPeriod.Valid() {
		return item.HoldingPeriod
	}
	return dto.HorizonSwing
}

// Forget drops the quote, cached levels and display-horizon override of removed symbols.
func (m *MarketDataSync) Forget(symbols ...string) {
	m.mu.Lock()
	for _, symbol := range symbols {
		symbol = utils.NormalizeSymbol(symbol)
		delete(m.quotes, symbol)
		delete(m.horizons, symbol)
		m.cache.Forget(symbol)
	}
	m.mu.Unlock()
	m.bc.notify()
}

// Reset drops all quotes, cached levels and horizon overrides.
func (m *MarketDataSync) Reset() {
	m.mu.Lock()
	m.quotes = make(map[string]dto.QuoteData)
	m.horizons = make(map[string]dto.Horizon)
	m.cache.Clear()
	m.mu.Unlock()
	m.bc.notify()
}

// CycleHorizon advances the displayed horizon and fetches its levels when nothing is
// known for it yet.
func (m *MarketDataSync) CycleHorizon(ctx context.Context, symbol string) (dto.Horizon, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if _, ok := m.watchlist.Get(symbol); !ok {
		return "", ErrSymbolNotFound
	}
	next := m.DisplayHorizon(symbol).Next()

	m.mu.Lock()
	m.horizons[symbol] = next
	m.mu.Unlock()
	m.bc.notify()

	if !m.GetPeriodPrices(symbol, next).IsEmpty() {
		return next, nil
	}
	return next, m.FetchPeriodPrices(ctx, symbol, next)
}

// FetchPeriodPrices loads one symbol's levels for h into the cache and the item.
// A second call while one is in flight for the same symbol is a no-op.
func (m *MarketDataSync) FetchPeriodPrices(ctx context.Context, symbol string, h dto.Horizon) error {
	symbol = utils.NormalizeSymbol(symbol)
	m.mu.Lock()
	if m.inflight[symbol] {
		m.mu.Unlock()
		return nil
	}
	m.inflight[symbol] = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, symbol)
		m.mu.Unlock()
	}()

	rows, err := m.gateway.GetSymbolPrices(ctx, []string{symbol}, h)
	if err != nil {
		m.log.WarnContext(ctx, "Failed to fetch period prices",
			logger.StringField("symbol", symbol),
			logger.StringField("period", string(h)),
			logger.ErrorField(err))
		return err
	}
	for _, row := range rows {
		if utils.NormalizeSymbol(row.Symbol) != symbol || row.PriceLevels.IsEmpty() {
			continue
		}
		m.cache.Merge(symbol, h, row.PriceLevels)
		m.watchlist.MergeLevels(symbol, h, row.PriceLevels)
	}
	m.bc.notify()
	return nil
}

// IsFetching reports whether a period price fetch is in flight for symbol.
func (m *MarketDataSync) IsFetching(symbol string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inflight[utils.NormalizeSymbol(symbol)]
}

// GetPeriodPrices resolves each level field independently: live cache, then the item's
// horizon field, then for swing only the legacy single-horizon field.
func (m *MarketDataSync) GetPeriodPrices(symbol string, h dto.Horizon) dto.PriceLevels {
	tiers := make([]dto.PriceLevels, 0, 3)
	if cached, ok := m.cache.Get(symbol, h); ok {
		tiers = append(tiers, cached)
	}
	if item, ok := m.watchlist.Get(symbol); ok {
		tiers = append(tiers, item.Levels(h))
		if h == dto.HorizonSwing {
			tiers = append(tiers, item.LegacyLevels())
		}
	}

	var out dto.PriceLevels
	for _, tier := range tiers {
		if out.Support == nil {
			out.Support = tier.Support
		}
		if out.Resistance == nil {
			out.Resistance = tier.Resistance
		}
		if out.Risk == nil {
			out.Risk = tier.Risk
		}
		if out.UpdatedAt.IsZero() {
			out.UpdatedAt = tier.UpdatedAt
		}
	}
	return out
}

// RecalculateAll asks the backend to recompute levels for every symbol. A synchronous
// answer is merged at once; an asynchronous one is left to the next quote tick.
func (m *MarketDataSync) RecalculateAll(ctx context.Context) error {
	symbols := m.watchlist.Symbols()
	if len(symbols) == 0 {
		m.notifier.Warning("Nothing to recalculate", "Your watchlist is empty")
		return ErrEmptySymbol
	}

	resp, err := m.gateway.CalculatePrices(ctx, dto.CalculatePricesRequest{Symbols: symbols, Force: true})
	if err != nil {
		m.notifier.Error("Failed to recalculate prices", repository.UserMessage(err))
		return err
	}

	if resp.IsAsync() {
		message := resp.Message
		if message == "" {
			message = "Prices are being computed and will appear shortly"
		}
		m.notifier.Info("Calculating prices", message)
		return nil
	}

	m.applyLevels(resp.Results)
	m.notifier.Success("Prices updated", fmt.Sprintf("Recalculated prices for %d symbols", len(resp.Results)))
	return nil
}
