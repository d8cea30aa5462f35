package dto

import "time"

// ReportSummary is immutable once created.
type ReportSummary struct {
	Symbol         string    `json:"symbol"`
	CreatedAt      time.Time `json:"created_at"`
	Recommendation string    `json:"recommendation,omitempty"`
	QuantScore     float64   `json:"quant_score"`
	Price          float64   `json:"price"`
	ChangePercent  float64   `json:"change_percent"`
}

type ReportsResponse struct {
	Reports []ReportSummary `json:"reports"`
}

type ReportDetail struct {
	ReportSummary
	Content map[string]interface{} `json:"content,omitempty"`
}
