package dto

type ReminderItem struct {
	ID            int64   `json:"id,omitempty"`
	Symbol        string  `json:"symbol" validate:"required"`
	ReminderType  string  `json:"reminder_type" validate:"required,oneof=buy sell both"`
	Frequency     string  `json:"frequency" validate:"required,oneof=trading_day weekly monthly"`
	Weekday       *int    `json:"weekday,omitempty" validate:"required_if=Frequency weekly,omitempty,min=1,max=7"`
	DayOfMonth    *int    `json:"day_of_month,omitempty" validate:"required_if=Frequency monthly,omitempty,min=1,max=31"`
	AnalysisTime  string  `json:"analysis_time" validate:"required,datetime=15:04"`
	HoldingPeriod Horizon `json:"holding_period,omitempty" validate:"omitempty,oneof=short swing long"`
}

type RemindersResponse struct {
	Reminders []ReminderItem `json:"reminders"`
}

type BatchReminderRequest struct {
	Symbols       []string `json:"symbols" validate:"required,min=1"`
	ReminderType  string   `json:"reminder_type" validate:"required,oneof=buy sell both"`
	Frequency     string   `json:"frequency" validate:"required,oneof=trading_day weekly monthly"`
	Weekday       *int     `json:"weekday,omitempty" validate:"required_if=Frequency weekly,omitempty,min=1,max=7"`
	DayOfMonth    *int     `json:"day_of_month,omitempty" validate:"required_if=Frequency monthly,omitempty,min=1,max=31"`
	AnalysisTime  string   `json:"analysis_time" validate:"required,datetime=15:04"`
	HoldingPeriod Horizon  `json:"holding_period,omitempty" validate:"omitempty,oneof=short swing long"`
}
