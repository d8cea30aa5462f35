package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist-sync/config"
	"watchlist-sync/internal/dto"
	"watchlist-sync/pkg/cache"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

func testPolling() config.Polling {
	return config.Polling{
		TaskActiveInterval:    3 * time.Second,
		TaskIdleInterval:      30 * time.Second,
		TaskTimeout:           10 * time.Minute,
		QuoteSessionInterval:  time.Second,
		QuoteIdleInterval:     30 * time.Second,
		SignalSessionInterval: 5 * time.Minute,
		SignalIdleInterval:    30 * time.Minute,
		SessionCheckInterval:  time.Minute,
		SignalBatchSize:       2,
	}
}

type marketFixture struct {
	gw        *fakeGateway
	watchlist *WatchlistStore
	cache     *PriceLevelCache
	market    *MarketDataSync
	notifier  *NotificationCenter
}

func newMarketFixture(now *time.Time) *marketFixture {
	gw := newFakeGateway()
	notifier := newTestNotifier()
	watchlist := NewWatchlistStore(gw, nil, notifier, logger.Nop())
	levels := NewPriceLevelCache(cache.NewCache(0, time.Minute))
	return &marketFixture{
		gw:        gw,
		watchlist: watchlist,
		cache:     levels,
		market:    NewMarketDataSync(gw, watchlist, levels, notifier, fixedClock(now), testPolling(), logger.Nop()),
		notifier:  notifier,
	}
}

func TestMarketDataSync_Intervals(t *testing.T) {
	tests := []struct {
		name       string
		now        time.Time
		wantQuote  time.Duration
		wantSignal time.Duration
	}{
		{name: "in session", now: time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC), wantQuote: time.Second, wantSignal: 5 * time.Minute},
		{name: "lunch break", now: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC), wantQuote: 30 * time.Second, wantSignal: 30 * time.Minute},
		{name: "weekend", now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC), wantQuote: 30 * time.Second, wantSignal: 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := tt.now
			f := newMarketFixture(&now)
			assert.Equal(t, tt.wantQuote, f.market.QuoteInterval())
			assert.Equal(t, tt.wantSignal, f.market.SignalInterval())
		})
	}
}

func TestMarketDataSync_GetPeriodPricesPerField(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.watchlist.Replace([]dto.WatchlistItem{{
		Symbol:          "AAPL",
		SwingResistance: utils.ToPointer(110.0),
		Support:         utils.ToPointer(90.0),
		Resistance:      utils.ToPointer(111.0),
		Risk:            utils.ToPointer(85.0),
		LongSupport:     utils.ToPointer(70.0),
	}})
	f.cache.Merge("AAPL", dto.HorizonSwing, dto.PriceLevels{Support: utils.ToPointer(95.0)})

	swing := f.market.GetPeriodPrices("AAPL", dto.HorizonSwing)
	assert.Equal(t, 95.0, *swing.Support)
	assert.Equal(t, 110.0, *swing.Resistance)
	assert.Equal(t, 85.0, *swing.Risk)
	assert.False(t, swing.UpdatedAt.IsZero())

	long := f.market.GetPeriodPrices("AAPL", dto.HorizonLong)
	assert.Equal(t, 70.0, *long.Support)
	assert.Nil(t, long.Resistance)
	assert.Nil(t, long.Risk)

	assert.True(t, f.market.GetPeriodPrices("MSFT", dto.HorizonShort).IsEmpty())
}

func TestMarketDataSync_SyncQuotesMergesLevels(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.watchlist.Replace([]dto.WatchlistItem{{Symbol: "AAPL", SwingSupport: utils.ToPointer(100.0)}})
	f.market.LoadQuotes([]dto.QuoteData{{Symbol: "OLD", CurrentPrice: 1}})
	f.gw.realtimeFn = func() ([]dto.RealtimePriceEntry, error) {
		return []dto.RealtimePriceEntry{
			{
				Symbol:        "AAPL",
				CurrentPrice:  utils.ToPointer(123.4),
				ChangePercent: utils.ToPointer(1.5),
				Swing:         &dto.PriceLevels{Resistance: utils.ToPointer(130.0)},
				Long:          &dto.PriceLevels{},
			},
			{Symbol: "NOPRICE"},
		}, nil
	}

	require.NoError(t, f.market.SyncQuotes(context.Background()))

	quotes := f.market.Quotes()
	assert.Len(t, quotes, 1)
	assert.Equal(t, 123.4, quotes["AAPL"].CurrentPrice)
	assert.Equal(t, 1.5, quotes["AAPL"].ChangePercent)

	item, _ := f.watchlist.Get("AAPL")
	assert.Equal(t, 100.0, *item.SwingSupport)
	assert.Equal(t, 130.0, *item.SwingResistance)
	assert.Nil(t, item.LongSupport)

	_, cachedLong := f.cache.Get("AAPL", dto.HorizonLong)
	assert.False(t, cachedLong)
}

func TestMarketDataSync_RefreshQuotesMerges(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.market.LoadQuotes([]dto.QuoteData{{Symbol: "AAPL", CurrentPrice: 1}})
	f.gw.quotesFn = func(symbols []string) ([]dto.QuoteData, error) {
		return []dto.QuoteData{{Symbol: "msft", CurrentPrice: 2}}, nil
	}

	require.NoError(t, f.market.RefreshQuotes(context.Background(), "MSFT"))

	assert.Len(t, f.market.Quotes(), 2)
	q, ok := f.market.Quote("MSFT")
	require.True(t, ok)
	assert.Equal(t, 2.0, q.CurrentPrice)
}

func TestMarketDataSync_SyncSignalsBatches(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.watchlist.Replace([]dto.WatchlistItem{
		{Symbol: "A"},
		{Symbol: "B", ShortSignal: "buy", SwingSignal: "buy", LongSignal: "buy"},
		{Symbol: "C"},
		{Symbol: "D", ShortSignal: "sell"},
		{Symbol: "E"},
	})
	f.gw.signalsFn = func(symbols []string) ([]dto.SymbolSignals, error) {
		if len(symbols) == 2 && symbols[0] == "A" && symbols[1] == "C" {
			return nil, networkErr()
		}
		out := make([]dto.SymbolSignals, len(symbols))
		for i, s := range symbols {
			out[i] = dto.SymbolSignals{Symbol: s, HorizonSignals: dto.HorizonSignals{Swing: "hold"}}
		}
		return out, nil
	}

	err := f.market.SyncSignals(context.Background(), false)

	require.Error(t, err)
	assert.Equal(t, [][]string{{"A", "C"}, {"D", "E"}}, f.gw.signalBatches)

	err = f.market.SyncSignals(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, f.gw.signalBatches, 5)

	item, _ := f.watchlist.Get("D")
	assert.Equal(t, "sell", item.ShortSignal)
	assert.Equal(t, "hold", item.SwingSignal)
}

func TestMarketDataSync_CycleHorizonFetchesOnce(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.watchlist.Replace([]dto.WatchlistItem{{Symbol: "AAPL", HoldingPeriod: dto.HorizonSwing}})
	f.gw.symbolPrices = func(symbols []string, period dto.Horizon) ([]dto.SymbolPrices, error) {
		assert.Equal(t, []string{"AAPL"}, symbols)
		return []dto.SymbolPrices{{Symbol: "AAPL", PriceLevels: dto.PriceLevels{Support: utils.ToPointer(50.0)}}}, nil
	}

	h, err := f.market.CycleHorizon(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, dto.HorizonLong, h)
	assert.Equal(t, dto.HorizonLong, f.market.DisplayHorizon("AAPL"))
	assert.Equal(t, 50.0, *f.market.GetPeriodPrices("AAPL", dto.HorizonLong).Support)
	assert.Equal(t, 1, f.gw.Calls("GetSymbolPrices"))

	h, err = f.market.CycleHorizon(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, dto.HorizonShort, h)

	h, err = f.market.CycleHorizon(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, dto.HorizonSwing, h)

	h, err = f.market.CycleHorizon(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, dto.HorizonLong, h)
	assert.Equal(t, 3, f.gw.Calls("GetSymbolPrices"))

	_, err = f.market.CycleHorizon(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestMarketDataSync_FetchInFlightGuard(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.watchlist.Replace([]dto.WatchlistItem{{Symbol: "AAPL"}})

	release := make(chan struct{})
	entered := make(chan struct{})
	f.gw.symbolPrices = func(symbols []string, period dto.Horizon) ([]dto.SymbolPrices, error) {
		close(entered)
		<-release
		return nil, nil
	}

	done := make(chan error, 1)
	go func() { done <- f.market.FetchPeriodPrices(context.Background(), "AAPL", dto.HorizonShort) }()
	<-entered

	assert.True(t, f.market.IsFetching("AAPL"))
	assert.NoError(t, f.market.FetchPeriodPrices(context.Background(), "AAPL", dto.HorizonShort))
	close(release)

	require.NoError(t, <-done)
	assert.False(t, f.market.IsFetching("AAPL"))
	assert.Equal(t, 1, f.gw.Calls("GetSymbolPrices"))
}

func TestMarketDataSync_RecalculateAll(t *testing.T) {
	tests := []struct {
		name      string
		resp      *dto.CalculatePricesResponse
		wantLevel AlertLevel
		wantRisk  *float64
	}{
		{
			name:      "asynchronous",
			resp:      &dto.CalculatePricesResponse{Status: "processing"},
			wantLevel: AlertInfo,
		},
		{
			name: "synchronous",
			resp: &dto.CalculatePricesResponse{Status: "ok", Results: []dto.RealtimePriceEntry{
				{Symbol: "AAPL", Short: &dto.PriceLevels{Risk: utils.ToPointer(12.0)}},
			}},
			wantLevel: AlertSuccess,
			wantRisk:  utils.ToPointer(12.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := testNow
			f := newMarketFixture(&now)
			f.watchlist.Replace([]dto.WatchlistItem{{Symbol: "AAPL"}})
			f.gw.calculateFn = func(req dto.CalculatePricesRequest) (*dto.CalculatePricesResponse, error) {
				assert.True(t, req.Force)
				assert.Equal(t, []string{"AAPL"}, req.Symbols)
				return tt.resp, nil
			}

			require.NoError(t, f.market.RecalculateAll(context.Background()))

			assert.Equal(t, tt.wantLevel, lastAlert(f.notifier).Level)
			assert.Equal(t, tt.wantRisk, f.market.GetPeriodPrices("AAPL", dto.HorizonShort).Risk)
		})
	}
}

func TestMarketDataSync_RecalculateEmptyWatchlist(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)

	assert.ErrorIs(t, f.market.RecalculateAll(context.Background()), ErrEmptySymbol)
	assert.Zero(t, f.gw.Calls("CalculatePrices"))
}

func TestMarketDataSync_ForgetDropsSymbolState(t *testing.T) {
	now := testNow
	f := newMarketFixture(&now)
	f.watchlist.Replace([]dto.WatchlistItem{{Symbol: "AAPL"}, {Symbol: "MSFT"}})
	f.market.LoadQuotes([]dto.QuoteData{{Symbol: "AAPL", CurrentPrice: 180}, {Symbol: "MSFT", CurrentPrice: 400}})
	f.cache.Merge("AAPL", dto.HorizonSwing, dto.PriceLevels{Support: utils.ToPointer(90.0)})
	f.cache.Merge("AAPL", dto.HorizonLong, dto.PriceLevels{Support: utils.ToPointer(60.0)})
	f.cache.Merge("MSFT", dto.HorizonSwing, dto.PriceLevels{Support: utils.ToPointer(300.0)})
	_, err := f.market.CycleHorizon(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Equal(t, dto.HorizonLong, f.market.DisplayHorizon("AAPL"))

	f.market.Forget("aapl")

	for _, h := range dto.Horizons {
		_, ok := f.cache.Get("AAPL", h)
		assert.False(t, ok, h)
	}
	_, ok := f.market.Quote("AAPL")
	assert.False(t, ok)
	assert.Equal(t, dto.HorizonSwing, f.market.DisplayHorizon("AAPL"))

	msft, ok := f.cache.Get("MSFT", dto.HorizonSwing)
	require.True(t, ok)
	assert.Equal(t, 300.0, *msft.Support)
	_, ok = f.market.Quote("MSFT")
	assert.True(t, ok)
}
