package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
)

// ReportKey folds the "." and "_" market-suffix conventions into one lookup key,
// so "0700.HK" and "0700_hk" resolve to the same report.
func ReportKey(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), "_", ".")
}

// ReportStore holds the latest report summary per symbol.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]dto.ReportSummary
	gateway repository.ReportGateway
	log     *logger.Logger
	bc      broadcaster
}

func NewReportStore(gateway repository.ReportGateway, log *logger.Logger) *ReportStore {
	return &ReportStore{
		reports: make(map[string]dto.ReportSummary),
		gateway: gateway,
		log:     log.Component("reports"),
	}
}

// Replace installs a full report list. When a symbol appears twice the newest report wins.
func (s *ReportStore) Replace(reports []dto.ReportSummary) {
	next := make(map[string]dto.ReportSummary, len(reports))
	for _, report := range reports {
		key := ReportKey(report.Symbol)
		if key == "" {
			continue
		}
		if existing, ok := next[key]; ok && !report.CreatedAt.After(existing.CreatedAt) {
			continue
		}
		next[key] = report
	}

	s.mu.Lock()
	s.reports = next
	s.mu.Unlock()
	s.bc.notify()
}

func (s *ReportStore) Refresh(ctx context.Context) error {
	reports, err := s.gateway.GetReports(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to refresh reports", logger.ErrorField(err))
		return err
	}
	s.Replace(reports)
	return nil
}

// Lookup returns the latest report for symbol under either separator convention.
func (s *ReportStore) Lookup(symbol string) (*dto.ReportSummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[ReportKey(symbol)]
	if !ok {
		return nil, false
	}
	return &report, true
}

// Snapshot returns all reports ordered by symbol.
func (s *ReportStore) Snapshot() []dto.ReportSummary {
	s.mu.RLock()
	out := make([]dto.ReportSummary, 0, len(s.reports))
	for _, report := range s.reports {
		out = append(out, report)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Detail fetches the full report body. Not cached.
func (s *ReportStore) Detail(ctx context.Context, symbol string) (*dto.ReportDetail, error) {
	return s.gateway.GetReport(ctx, symbol)
}

func (s *ReportStore) Subscribe(fn func()) func() {
	return s.bc.Subscribe(fn)
}
