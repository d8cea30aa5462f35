package service

import (
	"sort"
	"time"

	"watchlist-sync/internal/dto"
	"watchlist-sync/pkg/utils"
)

// TaskPhase is the effective state of a symbol's analysis after overlays are applied.
type TaskPhase string

const (
	PhaseIdle      TaskPhase = "idle"
	PhasePending   TaskPhase = "pending"
	PhaseRunning   TaskPhase = "running"
	PhaseCompleted TaskPhase = "completed"
	PhaseFailed    TaskPhase = "failed"
)

// TaskOverlay records why the phase differs from what the server reported.
type TaskOverlay string

const (
	OverlayNone               TaskOverlay = ""
	OverlayTimeout            TaskOverlay = "timeout"
	OverlaySupersededByReport TaskOverlay = "superseded_by_report"
)

const timeoutMessage = "Analysis timed out"

// TaskView is one symbol's task as the UI sees it. Status keeps what the server (or the
// optimistic placeholder) last said; Phase and Overlay are derived from it.
type TaskView struct {
	Symbol    string        `json:"symbol"`
	TaskID    string        `json:"task_id,omitempty"`
	Status    dto.TaskState `json:"status,omitempty"`
	Phase     TaskPhase     `json:"phase"`
	Overlay   TaskOverlay   `json:"overlay,omitempty"`
	Progress  int           `json:"progress"`
	UpdatedAt time.Time     `json:"updated_at"`
	Error     string        `json:"error,omitempty"`
}

func (v TaskView) IsActive() bool {
	return v.Phase == PhasePending || v.Phase == PhaseRunning
}

// CanAnalyze gates the analyze action.
func (v TaskView) CanAnalyze() bool {
	return !v.IsActive()
}

func (v TaskView) task() *dto.TaskStatus {
	if v.Status == "" {
		return nil
	}
	return &dto.TaskStatus{
		TaskID:    v.TaskID,
		Symbol:    v.Symbol,
		Status:    v.Status,
		Progress:  v.Progress,
		UpdatedAt: v.UpdatedAt,
		Error:     v.Error,
	}
}

// ReportLookup finds the latest report of a symbol.
type ReportLookup interface {
	Lookup(symbol string) (*dto.ReportSummary, bool)
}

// ResolveTaskView applies the derived overlays to a task. A report newer than the task
// marks any unfinished or failed task completed; otherwise a running task whose last
// update is older than timeout is shown as failed.
func ResolveTaskView(task *dto.TaskStatus, report *dto.ReportSummary, now time.Time, timeout time.Duration) TaskView {
	if task == nil {
		return TaskView{Phase: PhaseIdle}
	}
	view := TaskView{
		Symbol:    utils.NormalizeSymbol(task.Symbol),
		TaskID:    task.TaskID,
		Status:    task.Status,
		Phase:     phaseOf(task.Status),
		Progress:  task.Progress,
		UpdatedAt: task.UpdatedAt,
		Error:     task.Error,
	}

	if view.Phase != PhaseCompleted && report != nil && report.CreatedAt.After(task.UpdatedAt) {
		view.Phase = PhaseCompleted
		view.Overlay = OverlaySupersededByReport
		view.Progress = 100
		return view
	}
	if task.Status == dto.TaskRunning && timeout > 0 && now.Sub(task.UpdatedAt) > timeout {
		view.Phase = PhaseFailed
		view.Overlay = OverlayTimeout
		if view.Error == "" {
			view.Error = timeoutMessage
		}
	}
	return view
}

func phaseOf(status dto.TaskState) TaskPhase {
	switch status {
	case dto.TaskPending:
		return PhasePending
	case dto.TaskRunning:
		return PhaseRunning
	case dto.TaskCompleted:
		return PhaseCompleted
	case dto.TaskFailed:
		return PhaseFailed
	default:
		return PhaseIdle
	}
}

// supersedes reports whether the active view belongs to a newer run than task.
func supersedes(before TaskView, task dto.TaskStatus) bool {
	if !before.IsActive() || before.TaskID == task.TaskID {
		return false
	}
	return task.UpdatedAt.Before(before.UpdatedAt)
}

type FailedTask struct {
	Symbol  string
	Message string
}

// TaskDiff is the outcome of one poll.
type TaskDiff struct {
	Views     map[string]TaskView
	Completed []string
	Failed    []FailedTask
}

// DiffTasks reconciles a poll result against the previous views. Transitions count only
// when the previous view was active, so a first sighting of a finished task is silent.
// A failure is reported only when the symbol has no report and was not reported before.
// Active previous views missing from the poll, such as fresh optimistic placeholders, are
// carried over until they outlive timeout, then reported once as timed out.
func DiffTasks(prev map[string]TaskView, tasks []dto.TaskStatus, reports ReportLookup, notified map[string]struct{}, now time.Time, timeout time.Duration) TaskDiff {
	latest := make(map[string]dto.TaskStatus, len(tasks))
	for _, task := range tasks {
		symbol := utils.NormalizeSymbol(task.Symbol)
		if symbol == "" {
			continue
		}
		if existing, ok := latest[symbol]; ok && existing.UpdatedAt.After(task.UpdatedAt) {
			continue
		}
		task.Symbol = symbol
		latest[symbol] = task
	}

	lookup := func(symbol string) *dto.ReportSummary {
		if reports == nil {
			return nil
		}
		report, ok := reports.Lookup(symbol)
		if !ok {
			return nil
		}
		return report
	}

	diff := TaskDiff{Views: make(map[string]TaskView, len(latest))}
	for symbol, task := range latest {
		before, seen := prev[symbol]
		// a poll may still return the previous run for a symbol that has just been re-analyzed
		if seen && supersedes(before, task) {
			delete(latest, symbol)
			continue
		}

		report := lookup(symbol)
		view := ResolveTaskView(&task, report, now, timeout)
		diff.Views[symbol] = view

		if !seen || !before.IsActive() {
			continue
		}
		switch view.Phase {
		case PhaseCompleted:
			diff.Completed = append(diff.Completed, symbol)
		case PhaseFailed:
			if _, done := notified[symbol]; done || report != nil {
				continue
			}
			diff.Failed = append(diff.Failed, FailedTask{Symbol: symbol, Message: view.Error})
		}
	}

	for symbol, before := range prev {
		if _, polled := latest[symbol]; polled || !before.IsActive() {
			continue
		}
		report := lookup(symbol)
		view := ResolveTaskView(before.task(), report, now, timeout)
		if view.Phase == PhaseCompleted {
			diff.Views[symbol] = view
			diff.Completed = append(diff.Completed, symbol)
			continue
		}
		if now.Sub(before.UpdatedAt) < timeout {
			diff.Views[symbol] = view
			continue
		}

		// the server lost track of it; shown as timed out for this poll and then dropped
		view.Phase = PhaseFailed
		view.Overlay = OverlayTimeout
		if view.Error == "" {
			view.Error = timeoutMessage
		}
		diff.Views[symbol] = view
		if _, done := notified[symbol]; !done && report == nil {
			diff.Failed = append(diff.Failed, FailedTask{Symbol: symbol, Message: view.Error})
		}
	}

	sort.Strings(diff.Completed)
	sort.Slice(diff.Failed, func(i, j int) bool { return diff.Failed[i].Symbol < diff.Failed[j].Symbol })
	return diff
}
