package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

const backgroundTimeout = 30 * time.Second

// TaskActivity answers whether a symbol has an analysis pending or running.
type TaskActivity interface {
	IsActive(symbol string) bool
}

// WatchlistStore owns the local list of tracked symbols and the transient selection set.
type WatchlistStore struct {
	mu       sync.RWMutex
	items    []dto.WatchlistItem
	selected map[string]struct{}

	gateway  repository.WatchlistGateway
	tasks    TaskActivity
	notifier *NotificationCenter
	log      *logger.Logger
	bc       broadcaster
	wg       sync.WaitGroup
	onAdded   func(ctx context.Context, symbol string)
	onRemoved func(symbols []string)
}

func NewWatchlistStore(gateway repository.WatchlistGateway, tasks TaskActivity, notifier *NotificationCenter, log *logger.Logger) *WatchlistStore {
	return &WatchlistStore{
		selected: make(map[string]struct{}),
		gateway:  gateway,
		tasks:    tasks,
		notifier: notifier,
		log:      log.Component("watchlist"),
	}
}

// OnAdded registers a hook run in the background after the server confirms an add.
func (s *WatchlistStore) OnAdded(fn func(ctx context.Context, symbol string)) {
	s.mu.Lock()
	s.onAdded = fn
	s.mu.Unlock()
}

// OnRemoved registers a hook run synchronously with the symbols that left the list.
func (s *WatchlistStore) OnRemoved(fn func(symbols []string)) {
	s.mu.Lock()
	s.onRemoved = fn
	s.mu.Unlock()
}

func (s *WatchlistStore) removed(symbols []string, hook func(symbols []string)) {
	if len(symbols) > 0 && hook != nil {
		hook(symbols)
	}
}

func (s *WatchlistStore) Subscribe(fn func()) func() {
	return s.bc.Subscribe(fn)
}

// Wait blocks until background deletes and refetches have finished.
func (s *WatchlistStore) Wait() {
	s.wg.Wait()
}

func (s *WatchlistStore) indexOf(symbol string) int {
	for i := range s.items {
		if strings.EqualFold(s.items[i].Symbol, symbol) {
			return i
		}
	}
	return -1
}

func (s *WatchlistStore) Snapshot() []dto.WatchlistItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]dto.WatchlistItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *WatchlistStore) Get(symbol string) (dto.WatchlistItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(symbol); i >= 0 {
		return s.items[i], true
	}
	return dto.WatchlistItem{}, false
}

func (s *WatchlistStore) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.items))
	for i, item := range s.items {
		out[i] = item.Symbol
	}
	return out
}

// Replace installs the server list. Duplicate symbols keep their first occurrence, horizon
// fields the server left empty keep the local value, and the selection is pruned.
func (s *WatchlistStore) Replace(items []dto.WatchlistItem) {
	s.mu.Lock()
	previous := make(map[string]dto.WatchlistItem, len(s.items))
	for _, item := range s.items {
		previous[item.Symbol] = item
	}

	next := make([]dto.WatchlistItem, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item.Symbol = utils.NormalizeSymbol(item.Symbol)
		if item.Symbol == "" {
			continue
		}
		if _, dup := seen[item.Symbol]; dup {
			continue
		}
		seen[item.Symbol] = struct{}{}
		if item.HoldingPeriod == "" {
			item.HoldingPeriod = dto.HorizonSwing
		}
		if old, ok := previous[item.Symbol]; ok {
			keepLocal(&item, &old)
		}
		next = append(next, item)
	}
	s.items = next
	for symbol := range s.selected {
		if _, ok := seen[symbol]; !ok {
			delete(s.selected, symbol)
		}
	}
	var dropped []string
	for symbol := range previous {
		if _, ok := seen[symbol]; !ok {
			dropped = append(dropped, symbol)
		}
	}
	hook := s.onRemoved
	s.mu.Unlock()
	s.removed(dropped, hook)
	s.bc.notify()
}

// keepLocal fills the horizon fields item lacks from old.
func keepLocal(item, old *dto.WatchlistItem) {
	for _, h := range dto.Horizons {
		current := item.Levels(h)
		local := old.Levels(h)
		if current.Support == nil {
			current.Support = local.Support
		}
		if current.Resistance == nil {
			current.Resistance = local.Resistance
		}
		if current.Risk == nil {
			current.Risk = local.Risk
		}
		item.MergeLevels(h, current)
	}

	var signals dto.HorizonSignals
	if item.ShortSignal == "" {
		signals.Short = old.ShortSignal
	}
	if item.SwingSignal == "" {
		signals.Swing = old.SwingSignal
	}
	if item.LongSignal == "" {
		signals.Long = old.LongSignal
	}
	item.MergeSignals(signals)
}

// Refresh refetches the whole list from the server.
func (s *WatchlistStore) Refresh(ctx context.Context) error {
	items, err := s.gateway.GetWatchlist(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to refresh watchlist", logger.ErrorField(err))
		return err
	}
	s.Replace(items)
	return nil
}

func (s *WatchlistStore) background(ctx context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	utils.GoSafe(func() {
		defer s.wg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()
		fn(bgCtx)
	})
}

func (s *WatchlistStore) scheduleRefresh(ctx context.Context) {
	s.background(ctx, func(ctx context.Context) {
		_ = s.Refresh(ctx)
	})
}

func optimisticItem(req dto.AddWatchlistRequest) dto.WatchlistItem {
	item := dto.WatchlistItem{
		Symbol:        req.Symbol,
		Name:          req.Name,
		Type:          req.Type,
		HoldingPeriod: dto.HorizonSwing,
	}
	if item.Name == "" {
		item.Name = req.Symbol
	}
	if item.Type == "" {
		item.Type = dto.SecurityTypeStock
	}
	if req.Position != nil {
		item.Position = *req.Position
	}
	if req.CostPrice != nil {
		item.CostPrice = *req.CostPrice
	}
	return item
}

// Add inserts the item locally before the server call and removes it again when the
// call fails. A symbol already present is rejected without any network round-trip.
func (s *WatchlistStore) Add(ctx context.Context, req dto.AddWatchlistRequest) (*dto.WatchlistItem, error) {
	req.Symbol = utils.NormalizeSymbol(req.Symbol)
	if req.Symbol == "" {
		s.notifier.Warning("Invalid input", "Please enter a symbol")
		return nil, ErrEmptySymbol
	}

	s.mu.Lock()
	if s.indexOf(req.Symbol) >= 0 {
		s.mu.Unlock()
		s.notifier.Warning("Duplicate symbol", fmt.Sprintf("%s is already in your watchlist", req.Symbol))
		return nil, ErrDuplicateSymbol
	}
	item := optimisticItem(req)
	s.items = append(s.items, item)
	onAdded := s.onAdded
	s.mu.Unlock()
	s.bc.notify()

	if _, err := s.gateway.AddWatchlist(ctx, req); err != nil {
		s.remove(req.Symbol)
		s.log.WarnContext(ctx, "Add rolled back", logger.StringField("symbol", req.Symbol), logger.ErrorField(err))
		s.notifier.Error("Failed to add "+req.Symbol, repository.UserMessage(err))
		return nil, err
	}

	s.log.InfoContext(ctx, "Symbol added", logger.StringField("symbol", req.Symbol))
	s.scheduleRefresh(ctx)
	if onAdded != nil {
		s.background(ctx, func(ctx context.Context) { onAdded(ctx, req.Symbol) })
	}
	return &item, nil
}

// BatchAdd adds every non-duplicate request optimistically and rolls all of them back if
// the batch call fails.
func (s *WatchlistStore) BatchAdd(ctx context.Context, reqs []dto.AddWatchlistRequest) (*dto.BatchAddWatchlistResponse, error) {
	result := &dto.BatchAddWatchlistResponse{}
	accepted := make([]dto.AddWatchlistRequest, 0, len(reqs))

	s.mu.Lock()
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		req.Symbol = utils.NormalizeSymbol(req.Symbol)
		if req.Symbol == "" {
			continue
		}
		if _, dup := seen[req.Symbol]; dup || s.indexOf(req.Symbol) >= 0 {
			result.Skipped = append(result.Skipped, req.Symbol)
			continue
		}
		seen[req.Symbol] = struct{}{}
		accepted = append(accepted, req)
		s.items = append(s.items, optimisticItem(req))
	}
	s.mu.Unlock()

	if len(accepted) == 0 {
		s.notifier.Warning("Nothing to add", "All symbols are empty or already in your watchlist")
		return result, ErrDuplicateSymbol
	}
	s.bc.notify()

	resp, err := s.gateway.BatchAddWatchlist(ctx, dto.BatchAddWatchlistRequest{Items: accepted})
	if err != nil {
		symbols := make([]string, len(accepted))
		for i, req := range accepted {
			symbols[i] = req.Symbol
		}
		s.remove(symbols...)
		s.notifier.Error("Batch add failed", repository.UserMessage(err))
		return nil, err
	}

	result.Added = resp.Added
	if len(result.Added) == 0 {
		for _, req := range accepted {
			result.Added = append(result.Added, req.Symbol)
		}
	}
	result.Skipped = append(result.Skipped, resp.Skipped...)

	message := fmt.Sprintf("Added %d symbols", len(result.Added))
	if len(result.Skipped) > 0 {
		message += fmt.Sprintf(", skipped %d: %s", len(result.Skipped), strings.Join(result.Skipped, ", "))
	}
	s.notifier.Success("Batch add finished", message)
	s.scheduleRefresh(ctx)
	return result, nil
}

// remove drops symbols and their selection marks. Reports how many were present.
func (s *WatchlistStore) remove(symbols ...string) int {
	drop := make(map[string]struct{}, len(symbols))
	for _, symbol := range symbols {
		drop[utils.NormalizeSymbol(symbol)] = struct{}{}
	}

	s.mu.Lock()
	kept := s.items[:0:0]
	var gone []string
	for _, item := range s.items {
		if _, ok := drop[utils.NormalizeSymbol(item.Symbol)]; ok {
			gone = append(gone, item.Symbol)
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	for symbol := range drop {
		delete(s.selected, symbol)
	}
	hook := s.onRemoved
	s.mu.Unlock()

	s.removed(gone, hook)
	if len(gone) > 0 {
		s.bc.notify()
	}
	return len(gone)
}

func (s *WatchlistStore) guardDelete(symbols []string) error {
	var blocked []string
	for _, symbol := range symbols {
		if s.tasks != nil && s.tasks.IsActive(symbol) {
			blocked = append(blocked, symbol)
		}
	}
	if len(blocked) > 0 {
		err := &DeleteGuardError{Symbols: blocked}
		s.notifier.Warning("Cannot delete", err.Error())
		return err
	}
	return nil
}

// Delete removes the row immediately and calls the server in the background. A failed
// server call is not rolled back; the next full refresh restores the row.
func (s *WatchlistStore) Delete(ctx context.Context, symbol string) error {
	symbol = utils.NormalizeSymbol(symbol)
	if symbol == "" {
		return ErrEmptySymbol
	}
	if err := s.guardDelete([]string{symbol}); err != nil {
		return err
	}
	if s.remove(symbol) == 0 {
		return ErrSymbolNotFound
	}

	s.background(ctx, func(ctx context.Context) {
		if err := s.gateway.DeleteWatchlist(ctx, symbol); err != nil {
			s.log.WarnContext(ctx, "Delete failed on server", logger.StringField("symbol", symbol), logger.ErrorField(err))
			s.notifier.Error("Failed to delete "+symbol, repository.UserMessage(err))
			return
		}
		_ = s.Refresh(ctx)
	})
	return nil
}

// BatchDelete is refused entirely when any symbol has an analysis in flight.
func (s *WatchlistStore) BatchDelete(ctx context.Context, symbols []string) error {
	normalized := make([]string, 0, len(symbols))
	for _, symbol := range symbols {
		if symbol = utils.NormalizeSymbol(symbol); symbol != "" {
			normalized = append(normalized, symbol)
		}
	}
	if len(normalized) == 0 {
		s.notifier.Warning("Nothing selected", "Select at least one symbol to delete")
		return ErrEmptySymbol
	}
	if err := s.guardDelete(normalized); err != nil {
		return err
	}
	s.remove(normalized...)

	s.background(ctx, func(ctx context.Context) {
		if err := s.gateway.BatchDeleteWatchlist(ctx, normalized); err != nil {
			s.log.WarnContext(ctx, "Batch delete failed on server", logger.StringsField("symbols", normalized), logger.ErrorField(err))
			s.notifier.Error("Batch delete failed", repository.UserMessage(err))
			return
		}
		s.notifier.Success("Deleted", fmt.Sprintf("Removed %d symbols", len(normalized)))
		_ = s.Refresh(ctx)
	})
	return nil
}

// Edit applies the change locally and restores the previous item if the server rejects it.
func (s *WatchlistStore) Edit(ctx context.Context, symbol string, req dto.UpdateWatchlistRequest) error {
	symbol = utils.NormalizeSymbol(symbol)
	if req.HoldingPeriod != "" && !req.HoldingPeriod.Valid() {
		s.notifier.Warning("Invalid input", fmt.Sprintf("Unknown holding period %q", req.HoldingPeriod))
		return fmt.Errorf("invalid holding period %q", req.HoldingPeriod)
	}

	previous, ok := s.update(symbol, func(item *dto.WatchlistItem) {
		if req.Position != nil {
			item.Position = *req.Position
		}
		if req.CostPrice != nil {
			item.CostPrice = *req.CostPrice
		}
		if req.HoldingPeriod != "" {
			item.HoldingPeriod = req.HoldingPeriod
		}
	})
	if !ok {
		return ErrSymbolNotFound
	}

	if _, err := s.gateway.UpdateWatchlist(ctx, symbol, req); err != nil {
		s.update(symbol, func(item *dto.WatchlistItem) { *item = previous })
		s.notifier.Error("Failed to update "+symbol, repository.UserMessage(err))
		return err
	}
	s.scheduleRefresh(ctx)
	return nil
}

// ToggleStar flips the pin flag locally and reverts it on failure.
func (s *WatchlistStore) ToggleStar(ctx context.Context, symbol string) error {
	symbol = utils.NormalizeSymbol(symbol)
	previous, ok := s.update(symbol, func(item *dto.WatchlistItem) {
		if item.IsStarred() {
			item.Starred = 0
		} else {
			item.Starred = 1
		}
	})
	if !ok {
		return ErrSymbolNotFound
	}

	resp, err := s.gateway.ToggleStar(ctx, symbol)
	if err != nil {
		s.update(symbol, func(item *dto.WatchlistItem) { item.Starred = previous.Starred })
		s.notifier.Error("Failed to update "+symbol, repository.UserMessage(err))
		return err
	}
	// a reply without the flag keeps the optimistic value
	if resp != nil && resp.Starred != nil {
		s.update(symbol, func(item *dto.WatchlistItem) { item.Starred = *resp.Starred })
	}
	s.scheduleRefresh(ctx)
	return nil
}

// update mutates one item in place and returns its previous value.
func (s *WatchlistStore) update(symbol string, fn func(item *dto.WatchlistItem)) (dto.WatchlistItem, bool) {
	s.mu.Lock()
	i := s.indexOf(symbol)
	if i < 0 {
		s.mu.Unlock()
		return dto.WatchlistItem{}, false
	}
	previous := s.items[i]
	fn(&s.items[i])
	s.mu.Unlock()
	s.bc.notify()
	return previous, true
}

// MergeLevels writes the non-empty fields of pl into the item's horizon.
func (s *WatchlistStore) MergeLevels(symbol string, h dto.Horizon, pl dto.PriceLevels) bool {
	s.mu.Lock()
	i := s.indexOf(symbol)
	changed := i >= 0 && s.items[i].MergeLevels(h, pl)
	s.mu.Unlock()
	if changed {
		s.bc.notify()
	}
	return changed
}

// MergeSignals writes the non-empty signals into the item.
func (s *WatchlistStore) MergeSignals(symbol string, signals dto.HorizonSignals) bool {
	s.mu.Lock()
	i := s.indexOf(symbol)
	changed := i >= 0 && s.items[i].MergeSignals(signals)
	s.mu.Unlock()
	if changed {
		s.bc.notify()
	}
	return changed
}

// SetSelected marks or unmarks symbols. Unknown symbols are ignored.
func (s *WatchlistStore) SetSelected(selected bool, symbols ...string) {
	s.mu.Lock()
	for _, symbol := range symbols {
		symbol = utils.NormalizeSymbol(symbol)
		if !selected {
			delete(s.selected, symbol)
			continue
		}
		if s.indexOf(symbol) >= 0 {
			s.selected[symbol] = struct{}{}
		}
	}
	s.mu.Unlock()
	s.bc.notify()
}

func (s *WatchlistStore) SelectAll() {
	s.SetSelected(true, s.Symbols()...)
}

func (s *WatchlistStore) ClearSelection() {
	s.mu.Lock()
	s.selected = make(map[string]struct{})
	s.mu.Unlock()
	s.bc.notify()
}

func (s *WatchlistStore) IsSelected(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.selected[utils.NormalizeSymbol(symbol)]
	return ok
}

// Selected returns the selected symbols in list order.
func (s *WatchlistStore) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, item := range s.items {
		if _, ok := s.selected[item.Symbol]; ok {
			out = append(out, item.Symbol)
		}
	}
	return out
}

// ConfirmBatchDelete checks the guard now and asks the user before deleting. Returns the
// prompt id; the delete runs when the prompt is accepted.
func (s *WatchlistStore) ConfirmBatchDelete(ctx context.Context, symbols []string) (string, error) {
	if len(symbols) == 0 {
		s.notifier.Warning("Nothing selected", "Select at least one symbol to delete")
		return "", ErrEmptySymbol
	}
	if err := s.guardDelete(symbols); err != nil {
		return "", err
	}
	message := fmt.Sprintf("Delete %d symbols: %s?", len(symbols), strings.Join(symbols, ", "))
	id := s.notifier.Confirm("Delete symbols", message, func() {
		_ = s.BatchDelete(context.WithoutCancel(ctx), symbols)
	})
	return id, nil
}
