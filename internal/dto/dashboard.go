package dto

// DashboardInit is the bootstrap payload of GET /api/dashboard/init.
type DashboardInit struct {
	Watchlist []WatchlistItem `json:"watchlist"`
	Tasks     []TaskStatus    `json:"tasks"`
	Reports   []ReportSummary `json:"reports"`
	Settings  *UserSettings   `json:"settings,omitempty"`
	Quotes    []QuoteData     `json:"quotes"`
}
