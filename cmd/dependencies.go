package cmd

import (
	"context"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"watchlist-sync/config"
	"watchlist-sync/internal/repository"
	"watchlist-sync/internal/service"
	"watchlist-sync/pkg/cache"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/telegram"
)

type AppDependency struct {
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	cache     cache.Cache
	repo      *repository.Repository
	sinks     []service.NotificationSink
}

func NewAppDependency(ctx context.Context) (*AppDependency, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	repo, err := repository.NewRepository(cfg, log)
	if err != nil {
		log.Error("Failed to open local store", zap.Error(err))
		return nil, err
	}

	var sinks []service.NotificationSink
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		bot, err := telegram.NewBot(&cfg.Telegram)
		if err != nil {
			log.Error("Failed to create telegram bot", zap.Error(err))
			repo.Close()
			return nil, err
		}
		sinks = append(sinks, telegram.NewAlertSender(&cfg.Telegram, bot, log))
		log.Info("Telegram alert forwarding enabled", zap.Int64("chat_id", cfg.Telegram.ChatID))
	}

	e := echo.New()
	e.HideBanner = true
	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		echo:      e,
		cache:     cache.NewCache(cfg.Cache.DefaultExpiration, cfg.Cache.CleanupInterval),
		repo:      repo,
		sinks:     sinks,
	}, nil
}

func (d *AppDependency) NewService() *service.Service {
	return service.NewService(d.cfg, d.log, d.repo, d.cache, d.validator, d.sinks...)
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	defer d.log.Sync()
	if d.repo != nil {
		return d.repo.Close()
	}
	return nil
}
