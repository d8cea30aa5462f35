package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"watchlist-sync/pkg/logger"
	"watchlist-sync/pkg/utils"
)

type AlertLevel string

const (
	AlertInfo    AlertLevel = "info"
	AlertSuccess AlertLevel = "success"
	AlertWarning AlertLevel = "warning"
	AlertError   AlertLevel = "error"
)

type Alert struct {
	Level     AlertLevel `json:"level"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
}

type ConfirmPrompt struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

type NotificationSnapshot struct {
	Alert   *Alert         `json:"alert,omitempty"`
	Confirm *ConfirmPrompt `json:"confirm,omitempty"`
}

// NotificationSink receives a copy of every alert, e.g. a chat bot.
type NotificationSink interface {
	SendAlert(ctx context.Context, level, title, message string) error
}

// NotificationCenter holds the single alert and the single confirm prompt currently shown.
// A new one replaces the old; there is no queue.
type NotificationCenter struct {
	mu        sync.Mutex
	alert     *Alert
	confirm   *ConfirmPrompt
	onConfirm func()
	sinks     []NotificationSink
	log       *logger.Logger
	bc        broadcaster
}

func NewNotificationCenter(log *logger.Logger, sinks ...NotificationSink) *NotificationCenter {
	return &NotificationCenter{
		sinks: sinks,
		log:   log.Component("notification"),
	}
}

func (n *NotificationCenter) Info(title, message string)    { n.Alert(AlertInfo, title, message) }
func (n *NotificationCenter) Success(title, message string) { n.Alert(AlertSuccess, title, message) }
func (n *NotificationCenter) Warning(title, message string) { n.Alert(AlertWarning, title, message) }
func (n *NotificationCenter) Error(title, message string)   { n.Alert(AlertError, title, message) }

func (n *NotificationCenter) Alert(level AlertLevel, title, message string) {
	alert := &Alert{Level: level, Title: title, Message: message, CreatedAt: time.Now()}

	n.mu.Lock()
	n.alert = alert
	n.mu.Unlock()

	n.log.Info("Alert raised",
		logger.StringField("level", string(level)),
		logger.StringField("title", title),
		logger.StringField("message", message))

	for _, sink := range n.sinks {
		sink := sink
		utils.GoSafe(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := sink.SendAlert(ctx, string(level), title, message); err != nil {
				n.log.Warn("Failed to forward alert", logger.ErrorField(err))
			}
		})
	}
	n.bc.notify()
}

// Confirm shows a prompt; onConfirm runs only if the user accepts it.
func (n *NotificationCenter) Confirm(title, message string, onConfirm func()) string {
	prompt := &ConfirmPrompt{ID: uuid.NewString(), Title: title, Message: message}

	n.mu.Lock()
	n.confirm = prompt
	n.onConfirm = onConfirm
	n.mu.Unlock()

	n.bc.notify()
	return prompt.ID
}

// Resolve answers the prompt with the given id. Reports false when that prompt is no longer shown.
func (n *NotificationCenter) Resolve(id string, accepted bool) bool {
	n.mu.Lock()
	if n.confirm == nil || n.confirm.ID != id {
		n.mu.Unlock()
		return false
	}
	callback := n.onConfirm
	n.confirm = nil
	n.onConfirm = nil
	n.mu.Unlock()

	n.bc.notify()
	if accepted && callback != nil {
		callback()
	}
	return true
}

// Dismiss clears the current alert.
func (n *NotificationCenter) Dismiss() {
	n.mu.Lock()
	n.alert = nil
	n.mu.Unlock()
	n.bc.notify()
}

func (n *NotificationCenter) Snapshot() NotificationSnapshot {
	n.mu.Lock()
	defer n.mu.Unlock()

	var snap NotificationSnapshot
	if n.alert != nil {
		alert := *n.alert
		snap.Alert = &alert
	}
	if n.confirm != nil {
		confirm := *n.confirm
		snap.Confirm = &confirm
	}
	return snap
}

func (n *NotificationCenter) Subscribe(fn func()) func() {
	return n.bc.Subscribe(fn)
}
