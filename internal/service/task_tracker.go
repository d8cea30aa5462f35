package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

// placeholderPrefix marks task ids generated locally before the server acknowledges a request.
const placeholderPrefix = "local-"

// TaskTracker keeps one analysis task per symbol and raises alerts on poll transitions.
type TaskTracker struct {
	mu       sync.RWMutex
	views    map[string]TaskView
	notified map[string]struct{}

	gateway     repository.AnalysisGateway
	reports     ReportLookup
	notifier    *NotificationCenter
	clock       utils.Clock
	timeout     time.Duration
	log         *logger.Logger
	bc          broadcaster
	onCompleted func(ctx context.Context, symbols []string)
}

func NewTaskTracker(gateway repository.AnalysisGateway, reports ReportLookup, notifier *NotificationCenter, clock utils.Clock, timeout time.Duration, log *logger.Logger) *TaskTracker {
	return &TaskTracker{
		views:    make(map[string]TaskView),
		notified: make(map[string]struct{}),
		gateway:  gateway,
		reports:  reports,
		notifier: notifier,
		clock:    clock,
		timeout:  timeout,
		log:      log.Component("tasks"),
	}
}

// OnCompleted registers the cascade run after a poll observes completions.
func (t *TaskTracker) OnCompleted(fn func(ctx context.Context, symbols []string)) {
	t.mu.Lock()
	t.onCompleted = fn
	t.mu.Unlock()
}

func (t *TaskTracker) Subscribe(fn func()) func() {
	return t.bc.Subscribe(fn)
}

// Load installs the bootstrap task list. No transitions are reported.
func (t *TaskTracker) Load(tasks []dto.TaskStatus) {
	diff := DiffTasks(nil, tasks, t.reports, nil, t.clock(), t.timeout)
	t.mu.Lock()
	t.views = diff.Views
	t.mu.Unlock()
	t.bc.notify()
}

// Poll fetches the task list once and applies it.
func (t *TaskTracker) Poll(ctx context.Context) error {
	tasks, err := t.gateway.GetTasks(ctx)
	if err != nil {
		t.log.WarnContext(ctx, "Failed to poll tasks", logger.ErrorField(err))
		return err
	}
	t.Apply(ctx, tasks)
	return nil
}

// Apply diffs tasks against the current views, alerts new failures and runs the
// completion cascade.
func (t *TaskTracker) Apply(ctx context.Context, tasks []dto.TaskStatus) TaskDiff {
	t.mu.Lock()
	diff := DiffTasks(t.views, tasks, t.reports, t.notified, t.clock(), t.timeout)
	t.views = diff.Views
	for _, failed := range diff.Failed {
		t.notified[failed.Symbol] = struct{}{}
	}
	onCompleted := t.onCompleted
	t.mu.Unlock()

	t.alertFailures(diff.Failed)
	t.bc.notify()

	if len(diff.Completed) > 0 {
		t.log.InfoContext(ctx, "Analyses completed", logger.StringsField("symbols", diff.Completed))
		if onCompleted != nil {
			onCompleted(ctx, diff.Completed)
		}
	}
	return diff
}

func (t *TaskTracker) alertFailures(failed []FailedTask) {
	switch len(failed) {
	case 0:
		return
	case 1:
		message := failed[0].Message
		if message == "" {
			message = "The analysis did not finish"
		}
		t.notifier.Error("Analysis failed: "+failed[0].Symbol, message)
	default:
		symbols := make([]string, len(failed))
		for i, f := range failed {
			symbols[i] = f.Symbol
		}
		t.notifier.Error("Analysis failed", fmt.Sprintf("%d analyses failed: %s", len(failed), strings.Join(symbols, ", ")))
	}
}

// View resolves the symbol's task against the current clock and reports.
func (t *TaskTracker) View(symbol string) TaskView {
	symbol = utils.NormalizeSymbol(symbol)
	t.mu.RLock()
	stored, ok := t.views[symbol]
	t.mu.RUnlock()
	if !ok {
		return TaskView{Symbol: symbol, Phase: PhaseIdle}
	}

	var report *dto.ReportSummary
	if t.reports != nil {
		report, _ = t.reports.Lookup(symbol)
	}
	return ResolveTaskView(stored.task(), report, t.clock(), t.timeout)
}

func (t *TaskTracker) IsActive(symbol string) bool {
	return t.View(symbol).IsActive()
}

// HasActive reports whether any tracked task is pending or running.
func (t *TaskTracker) HasActive() bool {
	for _, symbol := range t.symbols() {
		if t.IsActive(symbol) {
			return true
		}
	}
	return false
}

func (t *TaskTracker) symbols() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.views))
	for symbol := range t.views {
		out = append(out, symbol)
	}
	sort.Strings(out)
	return out
}

// Snapshot returns every tracked view, freshly resolved, ordered by symbol.
func (t *TaskTracker) Snapshot() []TaskView {
	symbols := t.symbols()
	out := make([]TaskView, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, t.View(symbol))
	}
	return out
}

func (t *TaskTracker) placeholder(symbol string) TaskView {
	return TaskView{
		Symbol:    symbol,
		TaskID:    placeholderPrefix + uuid.NewString(),
		Status:    dto.TaskRunning,
		Phase:     PhaseRunning,
		UpdatedAt: t.clock(),
	}
}

type savedView struct {
	view TaskView
	ok   bool
}

// install puts placeholders in place and returns what they replaced.
func (t *TaskTracker) install(placeholders []TaskView) map[string]savedView {
	saved := make(map[string]savedView, len(placeholders))
	t.mu.Lock()
	for _, p := range placeholders {
		prev, ok := t.views[p.Symbol]
		saved[p.Symbol] = savedView{view: prev, ok: ok}
		t.views[p.Symbol] = p
	}
	t.mu.Unlock()
	t.bc.notify()
	return saved
}

// restore rolls back placeholders that have not been replaced by a poll in the meantime.
func (t *TaskTracker) restore(placeholders []TaskView, saved map[string]savedView) {
	t.mu.Lock()
	for _, p := range placeholders {
		if current, ok := t.views[p.Symbol]; !ok || current.TaskID != p.TaskID {
			continue
		}
		if prev := saved[p.Symbol]; prev.ok {
			t.views[p.Symbol] = prev.view
		} else {
			delete(t.views, p.Symbol)
		}
	}
	t.mu.Unlock()
	t.bc.notify()
}

// acknowledge swaps a placeholder id for the server-assigned one.
func (t *TaskTracker) acknowledge(p TaskView, taskID string, status dto.TaskState) {
	t.mu.Lock()
	current, ok := t.views[p.Symbol]
	if ok && current.TaskID == p.TaskID {
		if taskID != "" {
			current.TaskID = taskID
		}
		if status == dto.TaskPending || status == dto.TaskRunning {
			current.Status = status
			current.Phase = phaseOf(status)
		}
		t.views[p.Symbol] = current
	}
	t.mu.Unlock()
	t.bc.notify()
}

// Analyze starts a background analysis with an optimistic running placeholder.
func (t *TaskTracker) Analyze(ctx context.Context, symbol string, horizon dto.Horizon) (TaskView, error) {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		t.notifier.Warning("Invalid input", "Please enter a symbol")
		return TaskView{}, ErrEmptySymbol
	}
	if t.IsActive(symbol) {
		t.notifier.Warning("Analysis in progress", symbol+" is already being analyzed")
		return t.View(symbol), ErrTaskInFlight
	}

	p := t.placeholder(symbol)
	saved := t.install([]TaskView{p})

	resp, err := t.gateway.AnalyzeBackground(ctx, dto.AnalyzeRequest{Ticker: symbol, HoldingPeriod: horizon})
	if err != nil {
		t.restore([]TaskView{p}, saved)
		t.log.WarnContext(ctx, "Analyze request failed", logger.StringField("symbol", symbol), logger.ErrorField(err))
		t.notifier.Error("Failed to start analysis for "+symbol, repository.UserMessage(err))
		return TaskView{}, err
	}

	t.acknowledge(p, resp.TaskID, resp.Status)
	t.log.InfoContext(ctx, "Analysis started", logger.StringField("symbol", symbol), logger.StringField("task_id", resp.TaskID))
	return t.View(symbol), nil
}

// BatchAnalyze starts analyses for every symbol without an active task. All placeholders
// are rolled back together when the request fails.
func (t *TaskTracker) BatchAnalyze(ctx context.Context, symbols []string, horizon dto.Horizon) ([]string, error) {
	var (
		accepted []string
		skipped  []string
		seen     = make(map[string]struct{}, len(symbols))
	)
	for _, symbol := range symbols {
		symbol = utils.NormalizeSymbol(symbol)
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		if t.IsActive(symbol) {
			skipped = append(skipped, symbol)
			continue
		}
		accepted = append(accepted, symbol)
	}
	if len(accepted) == 0 {
		t.notifier.Warning("Nothing to analyze", "Every selected symbol is already being analyzed")
		return nil, ErrTaskInFlight
	}

	placeholders := make([]TaskView, len(accepted))
	for i, symbol := range accepted {
		placeholders[i] = t.placeholder(symbol)
	}
	saved := t.install(placeholders)

	resp, err := t.gateway.AnalyzeBatch(ctx, dto.BatchAnalyzeRequest{Symbols: accepted, HoldingPeriod: horizon})
	if err != nil {
		t.restore(placeholders, saved)
		t.log.WarnContext(ctx, "Batch analyze request failed", logger.StringsField("symbols", accepted), logger.ErrorField(err))
		t.notifier.Error("Failed to start batch analysis", repository.UserMessage(err))
		return nil, err
	}

	ids := make(map[string]string, len(resp.Tasks))
	for _, ref := range resp.Tasks {
		ids[utils.NormalizeSymbol(ref.Symbol)] = ref.TaskID
	}
	for _, p := range placeholders {
		t.acknowledge(p, ids[p.Symbol], "")
	}

	message := fmt.Sprintf("Started analysis for %d symbols", len(accepted))
	if len(skipped) > 0 {
		message += fmt.Sprintf(", skipped %d already running: %s", len(skipped), strings.Join(skipped, ", "))
	}
	t.notifier.Success("Batch analysis started", message)
	return accepted, nil
}
