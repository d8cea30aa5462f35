package service

import (
	"context"
	"testing"
	"time"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watchlist-sync/config"
	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/internal/view"
	"watchlist-sync/pkg/cache"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

type engineFixture struct {
	gw          *fakeGateway
	svc         *Service
	engine      *SyncEngine
	credentials repository.CredentialRepository
}

func newEngineFixture(t *testing.T, gw *fakeGateway) *engineFixture {
	t.Helper()
	store := newTestStore(t)
	credentials := repository.NewCredentialRepository(store)
	require.NoError(t, credentials.SaveSession(context.Background(), "token", nil))

	repo := &repository.Repository{
		Store:          store,
		CredentialRepo: credentials,
		PreferenceRepo: repository.NewPreferenceRepository(store),
		Gateway:        gw,
	}
	svc := NewService(config.Default(), logger.Nop(), repo, cache.NewCache(0, time.Minute), goValidator.New())
	t.Cleanup(func() {
		svc.Engine.Stop()
		svc.Engine.Watchlist.Wait()
	})
	return &engineFixture{gw: gw, svc: svc, engine: svc.Engine, credentials: credentials}
}

func unauthorizedErr() error {
	return &repository.GatewayError{Kind: repository.KindUnauthorized, StatusCode: 401, Message: "Token expired"}
}

func TestSyncEngine_BootstrapResolvesAgainstReports(t *testing.T) {
	now := time.Now()
	gw := newFakeGateway()
	gw.init = &dto.DashboardInit{
		Watchlist: []dto.WatchlistItem{{Symbol: "AAPL", HoldingPeriod: dto.HorizonLong}, {Symbol: "MSFT"}},
		Tasks: []dto.TaskStatus{
			{TaskID: "t1", Symbol: "AAPL", Status: dto.TaskRunning, UpdatedAt: now.Add(-time.Minute)},
			{TaskID: "t2", Symbol: "MSFT", Status: dto.TaskRunning, UpdatedAt: now.Add(-time.Minute)},
		},
		Reports:  []dto.ReportSummary{{Symbol: "AAPL", CreatedAt: now, Recommendation: "buy"}},
		Quotes:   []dto.QuoteData{{Symbol: "AAPL", CurrentPrice: 180, ChangePercent: 1.2}},
		Settings: &dto.UserSettings{DefaultHoldingPeriod: dto.HorizonShort},
	}
	f := newEngineFixture(t, gw)

	require.NoError(t, f.engine.Bootstrap(context.Background()))

	rows := f.engine.Rows()
	require.Len(t, rows, 2)
	aapl := rows[0]
	assert.Equal(t, "AAPL", aapl.Symbol)
	assert.Equal(t, string(PhaseCompleted), aapl.Task.Status)
	assert.Equal(t, string(OverlaySupersededByReport), aapl.Task.Overlay)
	assert.True(t, aapl.Task.Analyzable)
	assert.Equal(t, "buy", aapl.Recommendation)
	assert.Equal(t, dto.HorizonLong, aapl.DisplayHorizon)
	require.NotNil(t, aapl.CurrentPrice)
	assert.Equal(t, 180.0, *aapl.CurrentPrice)

	msft := rows[1]
	assert.Equal(t, string(PhaseRunning), msft.Task.Status)
	assert.False(t, msft.Task.Analyzable)
	assert.Nil(t, msft.CurrentPrice)
	assert.Equal(t, dto.HorizonShort, f.engine.Settings.DefaultHorizon())
}

func TestSyncEngine_UnauthorizedPollExpiresSession(t *testing.T) {
	gw := newFakeGateway()
	gw.init = &dto.DashboardInit{
		Watchlist: []dto.WatchlistItem{{Symbol: "AAPL"}},
		Quotes:    []dto.QuoteData{{Symbol: "AAPL", CurrentPrice: 180}},
	}
	f := newEngineFixture(t, gw)
	require.NoError(t, f.engine.Bootstrap(context.Background()))
	f.engine.Market.cache.Merge("AAPL", dto.HorizonSwing, dto.PriceLevels{Support: utils.ToPointer(90.0)})
	f.engine.Start(context.Background())
	poller := f.engine.Poller()
	require.NotNil(t, poller)

	gw.tasksFn = func() ([]dto.TaskStatus, error) { return nil, unauthorizedErr() }
	require.True(t, poller.Tick(pollTasks))

	assert.True(t, f.engine.Expired())
	assert.Nil(t, f.engine.Poller())
	token, err := f.credentials.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	alert := f.engine.Notifications.Snapshot().Alert
	require.NotNil(t, alert)
	assert.Equal(t, "Session expired", alert.Title)
	_, cached := f.engine.Market.cache.Get("AAPL", dto.HorizonSwing)
	assert.False(t, cached)
	_, quoted := f.engine.Market.Quote("AAPL")
	assert.False(t, quoted)
	select {
	case <-poller.Done():
	default:
		t.Fatal("poller should be stopped")
	}
}

func TestSyncEngine_NetworkErrorsAreSwallowed(t *testing.T) {
	gw := newFakeGateway()
	f := newEngineFixture(t, gw)
	f.engine.Start(context.Background())

	gw.tasksFn = func() ([]dto.TaskStatus, error) { return nil, networkErr() }
	f.engine.Poller().Tick(pollTasks)

	assert.False(t, f.engine.Expired())
	assert.NotNil(t, f.engine.Poller())
	assert.Nil(t, f.engine.Notifications.Snapshot().Alert)
}

func TestSyncEngine_TaskCadenceFollowsActivity(t *testing.T) {
	gw := newFakeGateway()
	f := newEngineFixture(t, gw)
	f.engine.Start(context.Background())
	polling := config.Default().Polling

	interval, ok := f.engine.Poller().Interval(pollTasks)
	require.True(t, ok)
	assert.Equal(t, polling.TaskIdleInterval, interval)

	_, err := f.engine.Analyze(context.Background(), "AAPL", "")
	require.NoError(t, err)
	interval, _ = f.engine.Poller().Interval(pollTasks)
	assert.Equal(t, polling.TaskActiveInterval, interval)

	gw.mu.Lock()
	gw.tasks = []dto.TaskStatus{{TaskID: "task-AAPL", Symbol: "AAPL", Status: dto.TaskCompleted, UpdatedAt: time.Now()}}
	gw.mu.Unlock()
	f.engine.Poller().Tick(pollTasks)
	interval, _ = f.engine.Poller().Interval(pollTasks)
	assert.Equal(t, polling.TaskIdleInterval, interval)
}

func TestSyncEngine_CompletionRefreshesReportsAndWatchlist(t *testing.T) {
	now := time.Now()
	gw := newFakeGateway()
	gw.init = &dto.DashboardInit{
		Watchlist: []dto.WatchlistItem{{Symbol: "AAPL"}},
		Tasks:     []dto.TaskStatus{{TaskID: "t1", Symbol: "AAPL", Status: dto.TaskRunning, UpdatedAt: now}},
	}
	f := newEngineFixture(t, gw)
	require.NoError(t, f.engine.Bootstrap(context.Background()))
	f.engine.Start(context.Background())

	gw.mu.Lock()
	gw.tasks = []dto.TaskStatus{{TaskID: "t1", Symbol: "AAPL", Status: dto.TaskCompleted, UpdatedAt: now.Add(time.Second)}}
	gw.reports = []dto.ReportSummary{{Symbol: "AAPL", CreatedAt: now.Add(time.Second), Recommendation: "sell"}}
	gw.watchlist = []dto.WatchlistItem{{Symbol: "AAPL", SwingSignal: dto.SignalSell}}
	gw.mu.Unlock()

	f.engine.Poller().Tick(pollTasks)

	report, ok := f.engine.Reports.Lookup("AAPL")
	require.True(t, ok)
	assert.Equal(t, "sell", report.Recommendation)
	item, _ := f.engine.Watchlist.Get("AAPL")
	assert.Equal(t, dto.SignalSell, item.SwingSignal)
}

func TestSyncEngine_AnalyzeDefaultsHorizon(t *testing.T) {
	gw := newFakeGateway()
	var horizons []dto.Horizon
	gw.analyzeFn = func(req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
		horizons = append(horizons, req.HoldingPeriod)
		return &dto.AnalyzeResponse{TaskID: "t-" + req.Ticker, Status: dto.TaskPending}, nil
	}
	gw.init = &dto.DashboardInit{
		Watchlist: []dto.WatchlistItem{{Symbol: "AAPL", HoldingPeriod: dto.HorizonLong}},
		Settings:  &dto.UserSettings{DefaultHoldingPeriod: dto.HorizonShort},
	}
	f := newEngineFixture(t, gw)
	require.NoError(t, f.engine.Bootstrap(context.Background()))

	_, err := f.engine.Analyze(context.Background(), "AAPL", "")
	require.NoError(t, err)
	_, err = f.engine.Analyze(context.Background(), "NEW", "")
	require.NoError(t, err)

	assert.Equal(t, []dto.Horizon{dto.HorizonLong, dto.HorizonShort}, horizons)
}

func TestSyncEngine_ViewAppliesPreferences(t *testing.T) {
	gw := newFakeGateway()
	gw.init = &dto.DashboardInit{
		Watchlist: []dto.WatchlistItem{
			{Symbol: "AAPL", Position: 5},
			{Symbol: "MSFT", Position: 50, Starred: 1},
			{Symbol: "TSLA", Position: 20},
		},
	}
	f := newEngineFixture(t, gw)
	require.NoError(t, f.engine.Bootstrap(context.Background()))

	prefs := DefaultPreferences()
	prefs.SortField = view.SortPosition
	prefs.SortOrder = view.SortAsc
	require.NoError(t, f.engine.Preferences.Update(context.Background(), prefs))

	page := f.engine.View()
	got := make([]string, len(page.Rows))
	for i, row := range page.Rows {
		got[i] = row.Symbol
	}
	assert.Equal(t, []string{"MSFT", "AAPL", "TSLA"}, got)
	assert.Equal(t, 3, page.Total)
}

func TestSyncEngine_BootstrapUnauthorized(t *testing.T) {
	gw := newFakeGateway()
	f := newEngineFixture(t, gw)
	f.svc.Engine.account = &failingAccount{fakeGateway: gw, err: unauthorizedErr()}

	err := f.engine.Bootstrap(context.Background())

	assert.ErrorIs(t, err, repository.ErrUnauthorized)
	assert.True(t, f.engine.Expired())
}

type failingAccount struct {
	*fakeGateway
	err error
}

func (a *failingAccount) DashboardInit(ctx context.Context) (*dto.DashboardInit, error) {
	return nil, a.err
}

func TestSyncEngine_DeletedSymbolLosesCachedLevels(t *testing.T) {
	gw := newFakeGateway()
	gw.init = &dto.DashboardInit{Watchlist: []dto.WatchlistItem{{Symbol: "AAPL"}}}
	f := newEngineFixture(t, gw)
	require.NoError(t, f.engine.Bootstrap(context.Background()))
	f.engine.Market.cache.Merge("AAPL", dto.HorizonSwing, dto.PriceLevels{Support: utils.ToPointer(90.0)})

	require.NoError(t, f.engine.Watchlist.Delete(context.Background(), "AAPL"))
	f.engine.Watchlist.Wait()
	f.engine.Watchlist.Replace([]dto.WatchlistItem{{Symbol: "AAPL", SwingSupport: utils.ToPointer(150.0)}})

	levels := f.engine.Market.GetPeriodPrices("AAPL", dto.HorizonSwing)
	require.NotNil(t, levels.Support)
	assert.Equal(t, 150.0, *levels.Support)
}
