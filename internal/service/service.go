package service

import (
	goValidator "github.com/go-playground/validator/v10"

	"watchlist-sync/config"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/cache"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

type Service struct {
	Engine    *SyncEngine
	Settings  *SettingsService
	Reminders *ReminderService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	inmemoryCache cache.Cache,
	validator *goValidator.Validate,
	sinks ...NotificationSink,
) *Service {
	clock := utils.ClockIn(utils.LoadLocation(cfg.Market.TimeZone))
	notifier := NewNotificationCenter(log, sinks...)

	reports := NewReportStore(repo.Gateway, log)
	tasks := NewTaskTracker(repo.Gateway, reports, notifier, clock, cfg.Polling.TaskTimeout, log)
	watchlist := NewWatchlistStore(repo.Gateway, tasks, notifier, log)
	market := NewMarketDataSync(repo.Gateway, watchlist, NewPriceLevelCache(inmemoryCache), notifier, clock, cfg.Polling, log)
	settings := NewSettingsService(repo.Gateway, validator, notifier, log)

	engine := &SyncEngine{
		polling:       cfg.Polling,
		account:       repo.Gateway,
		credentials:   repo.CredentialRepo,
		Watchlist:     watchlist,
		Tasks:         tasks,
		Reports:       reports,
		Market:        market,
		Notifications: notifier,
		Preferences:   NewPreferences(repo.PreferenceRepo, log),
		Settings:      settings,
		Visibility:    NewVisibility(),
		log:           log.Component("engine"),
	}
	tasks.OnCompleted(engine.onTasksCompleted)
	watchlist.OnAdded(engine.onSymbolAdded)
	watchlist.OnRemoved(engine.onSymbolsRemoved)

	return &Service{
		Engine:    engine,
		Settings:  settings,
		Reminders: NewReminderService(repo.Gateway, validator, notifier, log),
	}
}
