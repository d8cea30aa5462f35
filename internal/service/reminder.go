package service

import (
	"context"
	"fmt"

	goValidator "github.com/go-playground/validator/v10"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

// ReminderService manages scheduled analysis reminders. Reminders are not cached locally.
type ReminderService struct {
	gateway   repository.ReminderGateway
	validator *goValidator.Validate
	notifier  *NotificationCenter
	log       *logger.Logger
}

func NewReminderService(gateway repository.ReminderGateway, validator *goValidator.Validate, notifier *NotificationCenter, log *logger.Logger) *ReminderService {
	return &ReminderService{
		gateway:   gateway,
		validator: validator,
		notifier:  notifier,
		log:       log.Component("reminders"),
	}
}

func (s *ReminderService) List(ctx context.Context) ([]dto.ReminderItem, error) {
	return s.gateway.GetReminders(ctx)
}

func (s *ReminderService) Create(ctx context.Context, item dto.ReminderItem) (*dto.ReminderItem, error) {
	item.Symbol = utils.NormalizeSymbol(item.Symbol)
	if err := s.validator.Struct(item); err != nil {
		s.notifier.Warning("Invalid reminder", err.Error())
		return nil, fmt.Errorf("invalid reminder: %w", err)
	}

	created, err := s.gateway.CreateReminder(ctx, item)
	if err != nil {
		s.notifier.Error("Failed to create reminder for "+item.Symbol, repository.UserMessage(err))
		return nil, err
	}
	s.log.InfoContext(ctx, "Reminder created", logger.StringField("symbol", item.Symbol), logger.StringField("frequency", item.Frequency))
	return created, nil
}

func (s *ReminderService) BatchCreate(ctx context.Context, req dto.BatchReminderRequest) ([]dto.ReminderItem, error) {
	symbols := make([]string, 0, len(req.Symbols))
	for _, symbol := range req.Symbols {
		if symbol = utils.NormalizeSymbol(symbol); symbol != "" && !utils.ContainsString(symbols, symbol) {
			symbols = append(symbols, symbol)
		}
	}
	req.Symbols = symbols
	if err := s.validator.Struct(req); err != nil {
		s.notifier.Warning("Invalid reminder", err.Error())
		return nil, fmt.Errorf("invalid reminder: %w", err)
	}

	created, err := s.gateway.BatchCreateReminders(ctx, req)
	if err != nil {
		s.notifier.Error("Failed to create reminders", repository.UserMessage(err))
		return nil, err
	}
	s.notifier.Success("Reminders created", fmt.Sprintf("Created %d reminders", len(created)))
	return created, nil
}

func (s *ReminderService) Delete(ctx context.Context, id int64) error {
	if err := s.gateway.DeleteReminder(ctx, id); err != nil {
		s.notifier.Error("Failed to delete reminder", repository.UserMessage(err))
		return err
	}
	return nil
}
