package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"watchlist-sync/config"
	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/internal/view"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

const (
	pollTasks    = "tasks"
	pollQuotes   = "quotes"
	pollSignals  = "signals"
	pollSessions = "session"
)

// SyncEngine bootstraps the stores, runs the pollers and builds the rows the renderer shows.
type SyncEngine struct {
	polling     config.Polling
	account     repository.AccountGateway
	credentials repository.CredentialRepository

	Watchlist     *WatchlistStore
	Tasks         *TaskTracker
	Reports       *ReportStore
	Market        *MarketDataSync
	Notifications *NotificationCenter
	Preferences   *Preferences
	Settings      *SettingsService
	Visibility    *Visibility

	log         *logger.Logger
	mu          sync.Mutex
	poller      *Poller
	unsubscribe func()
	expired     atomic.Bool
}

// Bootstrap loads everything from the dashboard init payload and rehydrates preferences.
func (e *SyncEngine) Bootstrap(ctx context.Context) error {
	if err := e.Preferences.Load(ctx); err != nil {
		e.log.WarnContext(ctx, "Failed to load preferences, using defaults", logger.ErrorField(err))
	}

	init, err := e.account.DashboardInit(ctx)
	if err != nil {
		e.log.ErrorContext(ctx, "Bootstrap failed", logger.ErrorField(err))
		e.handleBackgroundError(ctx, err)
		return err
	}

	// reports first so task overlays resolve against them
	e.Reports.Replace(init.Reports)
	e.Watchlist.Replace(init.Watchlist)
	e.Tasks.Load(init.Tasks)
	e.Market.LoadQuotes(init.Quotes)
	e.Settings.Load(init.Settings)
	e.expired.Store(false)

	e.log.InfoContext(ctx, "Bootstrap finished",
		logger.IntField("watchlist", len(init.Watchlist)),
		logger.IntField("tasks", len(init.Tasks)),
		logger.IntField("reports", len(init.Reports)))
	return nil
}

// Start arms every poller under ctx. Calling Start again replaces the previous poll group.
func (e *SyncEngine) Start(ctx context.Context) {
	e.Stop()

	poller := NewPoller(ctx, e.Visibility, e.log)
	e.mu.Lock()
	e.poller = poller
	e.mu.Unlock()

	e.armTasks(poller)
	e.armMarket(poller)
	poller.Arm(pollSessions, e.polling.SessionCheckInterval, false, func(ctx context.Context) {
		e.armMarket(poller)
	})

	unsubscribe := e.Tasks.Subscribe(func() { e.armTasks(poller) })
	e.mu.Lock()
	e.unsubscribe = unsubscribe
	e.mu.Unlock()

	poller.Start()
	e.log.InfoContext(ctx, "Pollers started", logger.BoolField("in_session", e.Market.InSession()))
}

// Stop tears down the current poll group.
func (e *SyncEngine) Stop() {
	e.mu.Lock()
	poller, unsubscribe := e.poller, e.unsubscribe
	e.poller, e.unsubscribe = nil, nil
	e.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if poller != nil {
		poller.Stop()
	}
}

// Poller returns the running poll group, or nil when stopped.
func (e *SyncEngine) Poller() *Poller {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.poller
}

// armTasks picks the task cadence from current activity; a no-op when unchanged.
func (e *SyncEngine) armTasks(p *Poller) {
	interval := e.polling.TaskIdleInterval
	if e.Tasks.HasActive() {
		interval = e.polling.TaskActiveInterval
	}
	if p.Arm(pollTasks, interval, true, e.pollTasks) {
		e.log.Debug("Task cadence changed", logger.DurationField("interval", interval))
	}
}

// armMarket re-evaluates the trading session and re-arms quote and signal cadence.
func (e *SyncEngine) armMarket(p *Poller) {
	p.Arm(pollQuotes, e.Market.QuoteInterval(), true, func(ctx context.Context) {
		e.handleBackgroundError(ctx, e.Market.SyncQuotes(ctx))
	})
	p.Arm(pollSignals, e.Market.SignalInterval(), true, func(ctx context.Context) {
		e.handleBackgroundError(ctx, e.Market.SyncSignals(ctx, false))
	})
}

func (e *SyncEngine) pollTasks(ctx context.Context) {
	e.handleBackgroundError(ctx, e.Tasks.Poll(ctx))
}

// onTasksCompleted refreshes reports and the watchlist together.
func (e *SyncEngine) onTasksCompleted(ctx context.Context, symbols []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return e.Reports.Refresh(gctx) })
	g.Go(func() error { return e.Watchlist.Refresh(gctx) })
	if err := g.Wait(); err != nil {
		e.log.WarnContext(ctx, "Refresh after completion failed", logger.StringsField("symbols", symbols), logger.ErrorField(err))
		e.handleBackgroundError(ctx, err)
	}
}

// onSymbolAdded fetches the quote of a newly confirmed symbol.
func (e *SyncEngine) onSymbolAdded(ctx context.Context, symbol string) {
	e.handleBackgroundError(ctx, e.Market.RefreshQuotes(ctx, symbol))
}

func (e *SyncEngine) onSymbolsRemoved(symbols []string) {
	e.Market.Forget(symbols...)
}

// handleBackgroundError swallows everything except an expired session.
func (e *SyncEngine) handleBackgroundError(ctx context.Context, err error) {
	if err != nil && errors.Is(err, repository.ErrUnauthorized) {
		e.expireSession(ctx)
	}
}

// CheckSession is called with the result of a user action so an expired session is
// handled the same way as in the pollers. Returns err unchanged.
func (e *SyncEngine) CheckSession(ctx context.Context, err error) error {
	e.handleBackgroundError(ctx, err)
	return err
}

// Expired reports whether the session ended because the backend refused the credential.
func (e *SyncEngine) Expired() bool {
	return e.expired.Load()
}

func (e *SyncEngine) expireSession(ctx context.Context) {
	if !e.expired.CompareAndSwap(false, true) {
		return
	}
	e.log.WarnContext(ctx, "Session expired, stopping pollers")
	if err := e.credentials.Clear(context.WithoutCancel(ctx)); err != nil {
		e.log.ErrorContext(ctx, "Failed to clear credential", logger.ErrorField(err))
	}
	e.Notifications.Error("Session expired", "Please log in again")
	e.Stop()
	e.Market.Reset()
}

// Analyze starts an analysis, defaulting the horizon to the item's holding period and
// then to the user's default.
func (e *SyncEngine) Analyze(ctx context.Context, symbol string, horizon dto.Horizon) (TaskView, error) {
	if !horizon.Valid() {
		horizon = e.Settings.DefaultHorizon()
		if item, ok := e.Watchlist.Get(symbol); ok && item.HoldingPeriod.Valid() {
			horizon = item.HoldingPeriod
		}
	}
	v, err := e.Tasks.Analyze(ctx, symbol, horizon)
	return v, e.CheckSession(ctx, err)
}

func (e *SyncEngine) BatchAnalyze(ctx context.Context, symbols []string, horizon dto.Horizon) ([]string, error) {
	if !horizon.Valid() {
		horizon = e.Settings.DefaultHorizon()
	}
	started, err := e.Tasks.BatchAnalyze(ctx, symbols, horizon)
	return started, e.CheckSession(ctx, err)
}

// Rows resolves every watchlist item into a display row.
func (e *SyncEngine) Rows() []view.Row {
	items := e.Watchlist.Snapshot()
	rows := make([]view.Row, 0, len(items))
	for _, item := range items {
		h := e.Market.DisplayHorizon(item.Symbol)
		task := e.Tasks.View(item.Symbol)
		row := view.Row{
			Symbol:         item.Symbol,
			Name:           item.Name,
			Type:           item.Type,
			Starred:        item.IsStarred(),
			Selected:       e.Watchlist.IsSelected(item.Symbol),
			Position:       item.Position,
			CostPrice:      item.CostPrice,
			HoldingPeriod:  dto.ParseHorizon(string(item.HoldingPeriod)),
			DisplayHorizon: h,
			Levels:         e.Market.GetPeriodPrices(item.Symbol, h),
			Signal:         item.Signal(h),
			Task: view.TaskBadge{
				Status:     string(task.Phase),
				Overlay:    string(task.Overlay),
				Progress:   task.Progress,
				Analyzable: task.CanAnalyze(),
				Error:      task.Error,
			},
		}
		if q, ok := e.Market.Quote(item.Symbol); ok {
			row.CurrentPrice = utils.ToPointer(q.CurrentPrice)
			row.ChangePercent = utils.ToPointer(q.ChangePercent)
		}
		if report, ok := e.Reports.Lookup(item.Symbol); ok {
			row.Recommendation = report.Recommendation
			row.ReportAt = utils.ToPointer(report.CreatedAt)
		}
		rows = append(rows, row)
	}
	return rows
}

// Page runs the view pipeline over the current rows.
func (e *SyncEngine) Page(q view.Query) view.Page {
	return view.Apply(e.Rows(), q)
}

// View is the page for the persisted preferences and current page position.
func (e *SyncEngine) View() view.Page {
	return e.Page(e.Preferences.Query())
}

// Subscribe fires fn on any store change.
func (e *SyncEngine) Subscribe(fn func()) func() {
	unsubscribers := []func(){
		e.Watchlist.Subscribe(fn),
		e.Tasks.Subscribe(fn),
		e.Reports.Subscribe(fn),
		e.Market.Subscribe(fn),
		e.Notifications.Subscribe(fn),
	}
	return func() {
		for _, unsubscribe := range unsubscribers {
			unsubscribe()
		}
	}
}
