package service

import (
	"context"
	"sync"
	"time"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

// fakeGateway is an in-memory backend. Function fields override the default behaviour.
type fakeGateway struct {
	mu sync.Mutex

	watchlist []dto.WatchlistItem
	tasks     []dto.TaskStatus
	reports   []dto.ReportSummary
	init      *dto.DashboardInit
	calls     map[string]int

	addFn         func(req dto.AddWatchlistRequest) (*dto.WatchlistItem, error)
	batchAddFn    func(req dto.BatchAddWatchlistRequest) (*dto.BatchAddWatchlistResponse, error)
	updateFn      func(symbol string, req dto.UpdateWatchlistRequest) (*dto.WatchlistItem, error)
	deleteFn      func(symbol string) error
	batchDeleteFn func(symbols []string) error
	starFn        func(symbol string) (*dto.StarResponse, error)
	getWatchFn    func() ([]dto.WatchlistItem, error)
	tasksFn       func() ([]dto.TaskStatus, error)
	analyzeFn     func(req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	batchAnalyze  func(req dto.BatchAnalyzeRequest) (*dto.BatchAnalyzeResponse, error)
	realtimeFn    func() ([]dto.RealtimePriceEntry, error)
	symbolPrices  func(symbols []string, period dto.Horizon) ([]dto.SymbolPrices, error)
	calculateFn   func(req dto.CalculatePricesRequest) (*dto.CalculatePricesResponse, error)
	signalsFn     func(symbols []string) ([]dto.SymbolSignals, error)
	quotesFn      func(symbols []string) ([]dto.QuoteData, error)
	signalBatches [][]string
}

var _ repository.RemoteGateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{calls: make(map[string]int)}
}

func (f *fakeGateway) count(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeGateway) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeGateway) GetWatchlist(ctx context.Context) ([]dto.WatchlistItem, error) {
	f.count("GetWatchlist")
	if f.getWatchFn != nil {
		return f.getWatchFn()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]dto.WatchlistItem, len(f.watchlist))
	copy(out, f.watchlist)
	return out, nil
}

func (f *fakeGateway) AddWatchlist(ctx context.Context, req dto.AddWatchlistRequest) (*dto.WatchlistItem, error) {
	f.count("AddWatchlist")
	if f.addFn != nil {
		return f.addFn(req)
	}
	item := dto.WatchlistItem{Symbol: req.Symbol, Name: req.Symbol}
	f.mu.Lock()
	f.watchlist = append(f.watchlist, item)
	f.mu.Unlock()
	return &item, nil
}

func (f *fakeGateway) BatchAddWatchlist(ctx context.Context, req dto.BatchAddWatchlistRequest) (*dto.BatchAddWatchlistResponse, error) {
	f.count("BatchAddWatchlist")
	if f.batchAddFn != nil {
		return f.batchAddFn(req)
	}
	resp := &dto.BatchAddWatchlistResponse{}
	for _, item := range req.Items {
		resp.Added = append(resp.Added, item.Symbol)
	}
	return resp, nil
}

func (f *fakeGateway) UpdateWatchlist(ctx context.Context, symbol string, req dto.UpdateWatchlistRequest) (*dto.WatchlistItem, error) {
	f.count("UpdateWatchlist")
	if f.updateFn != nil {
		return f.updateFn(symbol, req)
	}
	return &dto.WatchlistItem{Symbol: symbol}, nil
}

func (f *fakeGateway) DeleteWatchlist(ctx context.Context, symbol string) error {
	f.count("DeleteWatchlist")
	if f.deleteFn != nil {
		return f.deleteFn(symbol)
	}
	return nil
}

func (f *fakeGateway) BatchDeleteWatchlist(ctx context.Context, symbols []string) error {
	f.count("BatchDeleteWatchlist")
	if f.batchDeleteFn != nil {
		return f.batchDeleteFn(symbols)
	}
	return nil
}

func (f *fakeGateway) ToggleStar(ctx context.Context, symbol string) (*dto.StarResponse, error) {
	f.count("ToggleStar")
	if f.starFn != nil {
		return f.starFn(symbol)
	}
	return &dto.StarResponse{Starred: utils.ToPointer(1)}, nil
}

func (f *fakeGateway) GetTasks(ctx context.Context) ([]dto.TaskStatus, error) {
	f.count("GetTasks")
	if f.tasksFn != nil {
		return f.tasksFn()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks, nil
}

func (f *fakeGateway) AnalyzeBackground(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error) {
	f.count("AnalyzeBackground")
	if f.analyzeFn != nil {
		return f.analyzeFn(req)
	}
	return &dto.AnalyzeResponse{TaskID: "task-" + req.Ticker, Status: dto.TaskPending}, nil
}

func (f *fakeGateway) AnalyzeBatch(ctx context.Context, req dto.BatchAnalyzeRequest) (*dto.BatchAnalyzeResponse, error) {
	f.count("AnalyzeBatch")
	if f.batchAnalyze != nil {
		return f.batchAnalyze(req)
	}
	resp := &dto.BatchAnalyzeResponse{}
	for _, symbol := range req.Symbols {
		resp.Tasks = append(resp.Tasks, dto.AnalyzeTaskRef{Symbol: symbol, TaskID: "task-" + symbol})
	}
	return resp, nil
}

func (f *fakeGateway) GetReports(ctx context.Context) ([]dto.ReportSummary, error) {
	f.count("GetReports")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reports, nil
}

func (f *fakeGateway) GetReport(ctx context.Context, symbol string) (*dto.ReportDetail, error) {
	f.count("GetReport")
	return &dto.ReportDetail{ReportSummary: dto.ReportSummary{Symbol: symbol}}, nil
}

func (f *fakeGateway) GetQuotes(ctx context.Context, symbols []string) ([]dto.QuoteData, error) {
	f.count("GetQuotes")
	if f.quotesFn != nil {
		return f.quotesFn(symbols)
	}
	return nil, nil
}

func (f *fakeGateway) GetRealtimePrices(ctx context.Context) ([]dto.RealtimePriceEntry, error) {
	f.count("GetRealtimePrices")
	if f.realtimeFn != nil {
		return f.realtimeFn()
	}
	return nil, nil
}

func (f *fakeGateway) GetSymbolPrices(ctx context.Context, symbols []string, period dto.Horizon) ([]dto.SymbolPrices, error) {
	f.count("GetSymbolPrices")
	if f.symbolPrices != nil {
		return f.symbolPrices(symbols, period)
	}
	return nil, nil
}

func (f *fakeGateway) CalculatePrices(ctx context.Context, req dto.CalculatePricesRequest) (*dto.CalculatePricesResponse, error) {
	f.count("CalculatePrices")
	if f.calculateFn != nil {
		return f.calculateFn(req)
	}
	return &dto.CalculatePricesResponse{Status: "processing"}, nil
}

func (f *fakeGateway) GetSignals(ctx context.Context, symbols []string) ([]dto.SymbolSignals, error) {
	f.count("GetSignals")
	f.mu.Lock()
	f.signalBatches = append(f.signalBatches, append([]string(nil), symbols...))
	f.mu.Unlock()
	if f.signalsFn != nil {
		return f.signalsFn(symbols)
	}
	return nil, nil
}

func (f *fakeGateway) DashboardInit(ctx context.Context) (*dto.DashboardInit, error) {
	f.count("DashboardInit")
	if f.init != nil {
		return f.init, nil
	}
	return &dto.DashboardInit{}, nil
}

func (f *fakeGateway) GetSettings(ctx context.Context) (*dto.UserSettings, error) {
	return &dto.UserSettings{}, nil
}

func (f *fakeGateway) SaveSettings(ctx context.Context, settings dto.UserSettings) (*dto.UserSettings, error) {
	return &settings, nil
}

func (f *fakeGateway) TestPush(ctx context.Context) error {
	return nil
}

func (f *fakeGateway) GetReminders(ctx context.Context) ([]dto.ReminderItem, error) {
	return nil, nil
}

func (f *fakeGateway) CreateReminder(ctx context.Context, item dto.ReminderItem) (*dto.ReminderItem, error) {
	item.ID = 1
	return &item, nil
}

func (f *fakeGateway) BatchCreateReminders(ctx context.Context, req dto.BatchReminderRequest) ([]dto.ReminderItem, error) {
	out := make([]dto.ReminderItem, len(req.Symbols))
	for i, symbol := range req.Symbols {
		out[i] = dto.ReminderItem{ID: int64(i + 1), Symbol: symbol}
	}
	return out, nil
}

func (f *fakeGateway) DeleteReminder(ctx context.Context, id int64) error {
	return nil
}

func remoteErr(message string) error {
	return &repository.GatewayError{Kind: repository.KindRemote, StatusCode: 400, Message: message}
}

func networkErr() error {
	return &repository.GatewayError{Kind: repository.KindNetwork, Message: repository.NetworkErrorMessage}
}

// fixedClock returns a clock that reads *now.
func fixedClock(now *time.Time) func() time.Time {
	return func() time.Time { return *now }
}

type activeSet map[string]bool

func (a activeSet) IsActive(symbol string) bool {
	return a[symbol]
}

func newTestNotifier() *NotificationCenter {
	return NewNotificationCenter(logger.Nop())
}

func lastAlert(n *NotificationCenter) *Alert {
	return n.Snapshot().Alert
}
