package dto

import "time"

// TaskStatus is the server view of a background analysis job.
type TaskStatus struct {
	TaskID    string    `json:"task_id"`
	Symbol    string    `json:"symbol"`
	Status    TaskState `json:"status"`
	Progress  int       `json:"progress"`
	UpdatedAt time.Time `json:"updated_at"`
	Error     string    `json:"error,omitempty"`
}

func (t TaskStatus) IsActive() bool {
	return t.Status == TaskPending || t.Status == TaskRunning
}

type TasksResponse struct {
	Tasks []TaskStatus `json:"tasks"`
}

type AnalyzeRequest struct {
	Ticker        string  `json:"ticker" validate:"required"`
	HoldingPeriod Horizon `json:"holding_period" validate:"omitempty,oneof=short swing long"`
}

type AnalyzeResponse struct {
	TaskID string    `json:"task_id"`
	Status TaskState `json:"status"`
}

type BatchAnalyzeRequest struct {
	Symbols       []string `json:"symbols" validate:"required,min=1"`
	HoldingPeriod Horizon  `json:"holding_period" validate:"omitempty,oneof=short swing long"`
}

type BatchAnalyzeResponse struct {
	Tasks []AnalyzeTaskRef `json:"tasks"`
}

type AnalyzeTaskRef struct {
	Symbol string `json:"symbol"`
	TaskID string `json:"task_id"`
}
