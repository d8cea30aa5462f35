package service

import (
	"context"
	"fmt"
	"sync"

	goValidator "github.com/go-playground/validator/v10"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
)

// SettingsService holds the user's push and default-horizon settings.
type SettingsService struct {
	mu        sync.RWMutex
	current   *dto.UserSettings
	gateway   repository.AccountGateway
	validator *goValidator.Validate
	notifier  *NotificationCenter
	log       *logger.Logger
}

func NewSettingsService(gateway repository.AccountGateway, validator *goValidator.Validate, notifier *NotificationCenter, log *logger.Logger) *SettingsService {
	return &SettingsService{
		gateway:   gateway,
		validator: validator,
		notifier:  notifier,
		log:       log.Component("settings"),
	}
}

// Load installs settings received with the bootstrap payload.
func (s *SettingsService) Load(settings *dto.UserSettings) {
	if settings == nil {
		return
	}
	copied := *settings
	s.mu.Lock()
	s.current = &copied
	s.mu.Unlock()
}

// Current returns the cached settings, or zero settings when none were loaded.
func (s *SettingsService) Current() dto.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return dto.UserSettings{}
	}
	return *s.current
}

// DefaultHorizon is the horizon new analyses use when none is given.
func (s *SettingsService) DefaultHorizon() dto.Horizon {
	return dto.ParseHorizon(string(s.Current().DefaultHoldingPeriod))
}

func (s *SettingsService) Get(ctx context.Context) (*dto.UserSettings, error) {
	settings, err := s.gateway.GetSettings(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to fetch settings", logger.ErrorField(err))
		return nil, err
	}
	s.Load(settings)
	return settings, nil
}

func (s *SettingsService) Save(ctx context.Context, settings dto.UserSettings) (*dto.UserSettings, error) {
	if err := s.validator.Struct(settings); err != nil {
		s.notifier.Warning("Invalid settings", err.Error())
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	saved, err := s.gateway.SaveSettings(ctx, settings)
	if err != nil {
		s.notifier.Error("Failed to save settings", repository.UserMessage(err))
		return nil, err
	}
	if saved == nil {
		saved = &settings
	}
	s.Load(saved)
	s.notifier.Success("Settings saved", "Your settings have been updated")
	return saved, nil
}

// TestPush asks the backend to send a test message through the configured channel.
func (s *SettingsService) TestPush(ctx context.Context) error {
	if err := s.gateway.TestPush(ctx); err != nil {
		s.notifier.Error("Test push failed", repository.UserMessage(err))
		return err
	}
	s.notifier.Success("Test push sent", "Check your push channel for the test message")
	return nil
}
