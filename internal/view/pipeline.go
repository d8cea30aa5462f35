package view

import (
	"cmp"
	"math"
	"sort"
	"strings"
	"time"

	"watchlist-sync/internal/dto"
)

type SortField string

const (
	SortNone          SortField = ""
	SortChangePercent SortField = "change_percent"
	SortPosition      SortField = "position"
	SortSupport       SortField = "support"
	SortResistance    SortField = "resistance"
	SortReportTime    SortField = "report_time"
)

func (f SortField) Valid() bool {
	switch f {
	case SortNone, SortChangePercent, SortPosition, SortSupport, SortResistance, SortReportTime:
		return true
	}
	return false
}

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func (o SortOrder) Valid() bool {
	return o == SortAsc || o == SortDesc
}

// FilterAll disables the period or signal filter.
const FilterAll = "all"

const DefaultPageSize = 20

var PageSizeOptions = []int{10, 20, 50, 100}

func ValidPageSize(size int) bool {
	for _, option := range PageSizeOptions {
		if option == size {
			return true
		}
	}
	return false
}

// TaskBadge is the analysis state a row displays.
type TaskBadge struct {
	Status     string `json:"status"`
	Overlay    string `json:"overlay,omitempty"`
	Progress   int    `json:"progress"`
	Analyzable bool   `json:"analyzable"`
	Error      string `json:"error,omitempty"`
}

// Row is one fully resolved watchlist line.
type Row struct {
	Symbol         string          `json:"symbol"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Starred        bool            `json:"starred"`
	Selected       bool            `json:"selected"`
	Position       float64         `json:"position"`
	CostPrice      float64         `json:"cost_price"`
	HoldingPeriod  dto.Horizon     `json:"holding_period"`
	DisplayHorizon dto.Horizon     `json:"display_horizon"`
	Levels         dto.PriceLevels `json:"levels"`
	Signal         string          `json:"signal,omitempty"`
	CurrentPrice   *float64        `json:"current_price,omitempty"`
	ChangePercent  *float64        `json:"change_percent,omitempty"`
	Task           TaskBadge       `json:"task"`
	Recommendation string          `json:"recommendation,omitempty"`
	ReportAt       *time.Time      `json:"report_at,omitempty"`
}

type Query struct {
	Search       string    `json:"search"`
	PeriodFilter string    `json:"period_filter"`
	SignalFilter string    `json:"signal_filter"`
	SortField    SortField `json:"sort_field"`
	SortOrder    SortOrder `json:"sort_order"`
	Page         int       `json:"page"`
	PageSize     int       `json:"page_size"`
}

type Page struct {
	Rows       []Row `json:"rows"`
	Total      int   `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// Apply runs search, filters, star-pinned sort and pagination. The input slice is not modified.
func Apply(rows []Row, q Query) Page {
	filtered := Filter(rows, q)
	Sort(filtered, q.SortField, q.SortOrder)
	return Paginate(filtered, q.Page, q.PageSize)
}

// Filter returns a new slice with the rows matching search, period and signal filters.
func Filter(rows []Row, q Query) []Row {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		if search != "" &&
			!strings.Contains(strings.ToLower(row.Symbol), search) &&
			!strings.Contains(strings.ToLower(row.Name), search) {
			continue
		}
		if active(q.PeriodFilter) && string(row.HoldingPeriod) != q.PeriodFilter {
			continue
		}
		// evaluated on the row's displayed horizon
		if active(q.SignalFilter) && row.Signal != q.SignalFilter {
			continue
		}
		out = append(out, row)
	}
	return out
}

func active(filter string) bool {
	return filter != "" && filter != FilterAll
}

// Sort orders rows in place: starred rows first, then by field within each tier.
// Equal keys keep their input order.
func Sort(rows []Row, field SortField, order SortOrder) {
	if order != SortAsc {
		order = SortDesc
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Starred != b.Starred {
			return a.Starred
		}
		return compareRows(a, b, field, order) < 0
	})
}

func compareRows(a, b Row, field SortField, order SortOrder) int {
	switch field {
	case SortChangePercent:
		return compareOptional(a.ChangePercent, b.ChangePercent, order)
	case SortPosition:
		return directed(cmp.Compare(a.Position, b.Position), order)
	case SortSupport:
		return directed(cmp.Compare(Distance(a.CurrentPrice, a.Levels.Support), Distance(b.CurrentPrice, b.Levels.Support)), order)
	case SortResistance:
		return directed(cmp.Compare(Distance(a.CurrentPrice, a.Levels.Resistance), Distance(b.CurrentPrice, b.Levels.Resistance)), order)
	case SortReportTime:
		return compareTime(a.ReportAt, b.ReportAt, order)
	default:
		return 0
	}
}

func directed(c int, order SortOrder) int {
	if order == SortDesc {
		return -c
	}
	return c
}

// compareOptional puts missing values last in both orders.
func compareOptional(a, b *float64, order SortOrder) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return directed(cmp.Compare(*a, *b), order)
}

func compareTime(a, b *time.Time, order SortOrder) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return directed(a.Compare(*b), order)
}

// Distance is |price - level| / price. A missing level or price is infinitely far.
func Distance(price, level *float64) float64 {
	if price == nil || level == nil || *price == 0 {
		return math.Inf(1)
	}
	return math.Abs(*price-*level) / *price
}

// Paginate slices one page out of rows, clamping page into range.
func Paginate(rows []Row, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > total {
		end = total
	}
	return Page{
		Rows:       rows[start:end],
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}
