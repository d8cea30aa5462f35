package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/internal/view"
	"watchlist-sync/pkg/common"
	"watchlist-sync/pkg/logger"
)

// UiPreferences are the persisted filter/sort choices.
type UiPreferences struct {
	Search       string         `json:"search"`
	SortField    view.SortField `json:"sort_field"`
	SortOrder    view.SortOrder `json:"sort_order"`
	PeriodFilter string         `json:"period_filter"`
	SignalFilter string         `json:"signal_filter"`
}

func DefaultPreferences() UiPreferences {
	return UiPreferences{
		Search:       "",
		SortField:    view.SortNone,
		SortOrder:    view.SortDesc,
		PeriodFilter: view.FilterAll,
		SignalFilter: view.FilterAll,
	}
}

func (p UiPreferences) values() map[string]string {
	return map[string]string{
		common.KEY_PREF_SEARCH:        p.Search,
		common.KEY_PREF_SORT_FIELD:    string(p.SortField),
		common.KEY_PREF_SORT_ORDER:    string(p.SortOrder),
		common.KEY_PREF_PERIOD_FILTER: p.PeriodFilter,
		common.KEY_PREF_SIGNAL_FILTER: p.SignalFilter,
	}
}

// Validate rejects values outside the known options.
func (p UiPreferences) Validate() error {
	if !p.SortField.Valid() {
		return fmt.Errorf("unknown sort field %q", p.SortField)
	}
	if !p.SortOrder.Valid() {
		return fmt.Errorf("unknown sort order %q", p.SortOrder)
	}
	if p.PeriodFilter != view.FilterAll && !dto.Horizon(p.PeriodFilter).Valid() {
		return fmt.Errorf("unknown period filter %q", p.PeriodFilter)
	}
	switch p.SignalFilter {
	case view.FilterAll, dto.SignalBuy, dto.SignalSell, dto.SignalHold:
	default:
		return fmt.Errorf("unknown signal filter %q", p.SignalFilter)
	}
	return nil
}

// Preferences owns UiPreferences plus the transient page position.
type Preferences struct {
	mu       sync.Mutex
	repo     repository.PreferenceRepository
	prefs    UiPreferences
	page     int
	pageSize int
	log      *logger.Logger
}

func NewPreferences(repo repository.PreferenceRepository, log *logger.Logger) *Preferences {
	return &Preferences{
		repo:     repo,
		prefs:    DefaultPreferences(),
		page:     1,
		pageSize: view.DefaultPageSize,
		log:      log.Component("preferences"),
	}
}

// Load rehydrates every key independently; an invalid stored value falls back to its default.
func (p *Preferences) Load(ctx context.Context) error {
	stored, err := p.repo.Load(ctx)
	if err != nil {
		return err
	}

	defaults := DefaultPreferences()
	prefs := defaults
	if v, ok := stored[common.KEY_PREF_SEARCH]; ok {
		prefs.Search = v
	}
	if v, ok := stored[common.KEY_PREF_SORT_FIELD]; ok && view.SortField(v).Valid() {
		prefs.SortField = view.SortField(v)
	}
	if v, ok := stored[common.KEY_PREF_SORT_ORDER]; ok && view.SortOrder(v).Valid() {
		prefs.SortOrder = view.SortOrder(v)
	}
	if v, ok := stored[common.KEY_PREF_PERIOD_FILTER]; ok {
		prefs.PeriodFilter = v
		if prefs.Validate() != nil {
			prefs.PeriodFilter = defaults.PeriodFilter
		}
	}
	if v, ok := stored[common.KEY_PREF_SIGNAL_FILTER]; ok {
		prefs.SignalFilter = v
		if prefs.Validate() != nil {
			prefs.SignalFilter = defaults.SignalFilter
		}
	}

	p.mu.Lock()
	p.prefs = prefs
	p.mu.Unlock()
	return nil
}

func (p *Preferences) Get() UiPreferences {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prefs
}

// Update is the single setter. Keys equal to their default are removed from storage;
// any change resets the page to 1.
func (p *Preferences) Update(ctx context.Context, next UiPreferences) error {
	next.Search = strings.TrimSpace(next.Search)
	if err := next.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	prev := p.prefs
	p.prefs = next
	if prev != next {
		p.page = 1
	}
	p.mu.Unlock()

	if prev == next {
		return nil
	}

	defaults := DefaultPreferences().values()
	prevValues := prev.values()
	for key, value := range next.values() {
		if value == prevValues[key] {
			continue
		}
		var err error
		if value == defaults[key] {
			err = p.repo.Delete(ctx, key)
		} else {
			err = p.repo.Set(ctx, key, value)
		}
		if err != nil {
			p.log.WarnContext(ctx, "Failed to persist preference", logger.StringField("key", key), logger.ErrorField(err))
			return fmt.Errorf("failed to persist preference %s: %w", key, err)
		}
	}
	return nil
}

func (p *Preferences) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	p.mu.Lock()
	p.page = page
	p.mu.Unlock()
}

// SetPageSize accepts only the listed page-size options and resets to page 1.
func (p *Preferences) SetPageSize(size int) error {
	if !view.ValidPageSize(size) {
		return fmt.Errorf("page size must be one of %v", view.PageSizeOptions)
	}
	p.mu.Lock()
	if p.pageSize != size {
		p.pageSize = size
		p.page = 1
	}
	p.mu.Unlock()
	return nil
}

func (p *Preferences) Query() view.Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return view.Query{
		Search:       p.prefs.Search,
		PeriodFilter: p.prefs.PeriodFilter,
		SignalFilter: p.prefs.SignalFilter,
		SortField:    p.prefs.SortField,
		SortOrder:    p.prefs.SortOrder,
		Page:         p.page,
		PageSize:     p.pageSize,
	}
}
