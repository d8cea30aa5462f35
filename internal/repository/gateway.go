package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"watchlist-sync/config"
	"watchlist-sync/internal/dto"
	"watchlist-sync/pkg/httpclient"
	"watchlist-sync/pkg/logger"
)

type ErrorKind string

const (
	KindRemote       ErrorKind = "remote"
	KindNetwork      ErrorKind = "network"
	KindUnauthorized ErrorKind = "unauthorized"
)

var (
	ErrRemote       = errors.New("remote rejection")
	ErrNetwork      = errors.New("network failure")
	ErrUnauthorized = errors.New("unauthorized")
)

// NetworkErrorMessage is shown when the backend could not be reached at all.
const NetworkErrorMessage = "Network error, please check your connection and try again"

// GatewayError is the only error type returned by RemoteGateway methods.
type GatewayError struct {
	Kind       ErrorKind
	Method     string
	Endpoint   string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func (e *GatewayError) Is(target error) bool {
	switch target {
	case ErrRemote:
		return e.Kind == KindRemote
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	}
	return false
}

// UserMessage picks the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Kind == KindNetwork {
		return NetworkErrorMessage
	}
	return err.Error()
}

// TokenSource yields the last-known bearer token. It is consulted on every call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type WatchlistGateway interface {
	GetWatchlist(ctx context.Context) ([]dto.WatchlistItem, error)
	AddWatchlist(ctx context.Context, req dto.AddWatchlistRequest) (*dto.WatchlistItem, error)
	BatchAddWatchlist(ctx context.Context, req dto.BatchAddWatchlistRequest) (*dto.BatchAddWatchlistResponse, error)
	UpdateWatchlist(ctx context.Context, symbol string, req dto.UpdateWatchlistRequest) (*dto.WatchlistItem, error)
	DeleteWatchlist(ctx context.Context, symbol string) error
	BatchDeleteWatchlist(ctx context.Context, symbols []string) error
	ToggleStar(ctx context.Context, symbol string) (*dto.StarResponse, error)
}

type AnalysisGateway interface {
	GetTasks(ctx context.Context) ([]dto.TaskStatus, error)
	AnalyzeBackground(ctx context.Context, req dto.AnalyzeRequest) (*dto.AnalyzeResponse, error)
	AnalyzeBatch(ctx context.Context, req dto.BatchAnalyzeRequest) (*dto.BatchAnalyzeResponse, error)
}

type ReportGateway interface {
	GetReports(ctx context.Context) ([]dto.ReportSummary, error)
	GetReport(ctx context.Context, symbol string) (*dto.ReportDetail, error)
}

type MarketGateway interface {
	GetQuotes(ctx context.Context, symbols []string) ([]dto.QuoteData, error)
	GetRealtimePrices(ctx context.Context) ([]dto.RealtimePriceEntry, error)
	GetSymbolPrices(ctx context.Context, symbols []string, period dto.Horizon) ([]dto.SymbolPrices, error)
	CalculatePrices(ctx context.Context, req dto.CalculatePricesRequest) (*dto.CalculatePricesResponse, error)
	GetSignals(ctx context.Context, symbols []string) ([]dto.SymbolSignals, error)
}

type AccountGateway interface {
	DashboardInit(ctx context.Context) (*dto.DashboardInit, error)
	GetSettings(ctx context.Context) (*dto.UserSettings, error)
	SaveSettings(ctx context.Context, settings dto.UserSettings) (*dto.UserSettings, error)
	TestPush(ctx context.Context) error
}

type ReminderGateway interface {
	GetReminders(ctx context.Context) ([]dto.ReminderItem, error)
	CreateReminder(ctx context.Context, item dto.ReminderItem) (*dto.ReminderItem, error)
	BatchCreateReminders(ctx context.Context, req dto.BatchReminderRequest) ([]dto.ReminderItem, error)
	DeleteReminder(ctx context.Context, id int64) error
}

// RemoteGateway is the typed wrapper over every backend endpoint.
type RemoteGateway interface {
	WatchlistGateway
	AnalysisGateway
	ReportGateway
	MarketGateway
	AccountGateway
	ReminderGateway
}

type remoteGateway struct {
	httpClient httpclient.HTTPClient
	tokens     TokenSource
	log        *logger.Logger
}

func NewRemoteGateway(cfg *config.Config, tokens TokenSource, log *logger.Logger) RemoteGateway {
	return NewRemoteGatewayWithClient(httpclient.New(cfg.Backend.BaseURL, cfg.Backend.Timeout), tokens, log)
}

func NewRemoteGatewayWithClient(client httpclient.HTTPClient, tokens TokenSource, log *logger.Logger) RemoteGateway {
	return &remoteGateway{
		httpClient: client,
		tokens:     tokens,
		log:        log.Component("gateway"),
	}
}

// call issues one request and converts every outcome into nil or a *GatewayError.
func (g *remoteGateway) call(ctx context.Context, method, endpoint string, query map[string]string, body, result interface{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &GatewayError{Kind: KindNetwork, Method: method, Endpoint: endpoint, Message: fmt.Sprintf("request panicked: %v", r)}
		}
	}()

	token, err := g.tokens.Token(ctx)
	if err != nil || token == "" {
		return &GatewayError{Kind: KindUnauthorized, Method: method, Endpoint: endpoint, Message: "Not logged in", Err: err}
	}
	headers := map[string]string{"Authorization": "Bearer " + token}

	var resp *httpclient.BaseResponse
	switch method {
	case http.MethodGet:
		resp, err = g.httpClient.Get(ctx, endpoint, query, headers, result)
	case http.MethodPost:
		resp, err = g.httpClient.Post(ctx, endpoint, body, headers, result)
	case http.MethodPut:
		resp, err = g.httpClient.Put(ctx, endpoint, body, headers, result)
	case http.MethodDelete:
		resp, err = g.httpClient.Delete(ctx, endpoint, headers, result)
	default:
		return &GatewayError{Kind: KindRemote, Method: method, Endpoint: endpoint, Message: "unsupported method " + method}
	}

	if resp == nil || resp.StatusCode == 0 {
		g.log.DebugContext(ctx, "Backend unreachable",
			logger.StringField("method", method),
			logger.StringField("endpoint", endpoint),
			logger.ErrorField(err))
		return &GatewayError{Kind: KindNetwork, Method: method, Endpoint: endpoint, Message: NetworkErrorMessage, Err: err}
	}

	if !resp.IsSuccess() {
		kind := KindRemote
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			kind = KindUnauthorized
		}
		return &GatewayError{
			Kind:       kind,
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    ParseErrorMessage(resp.Body, resp.StatusCode),
		}
	}

	if err != nil {
		return &GatewayError{
			Kind:       KindRemote,
			Method:     method,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    "Unexpected response from server",
			Err:        err,
		}
	}
	return nil
}

// ParseErrorMessage extracts the best-effort message of a failed response:
// JSON "detail" (string or list of {msg}), then "message", then the status text.
func ParseErrorMessage(body []byte, statusCode int) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		if len(payload.Detail) > 0 {
			var detail string
			if json.Unmarshal(payload.Detail, &detail) == nil && detail != "" {
				return detail
			}
			var items []struct {
				Msg string `json:"msg"`
			}
			if json.Unmarshal(payload.Detail, &items) == nil {
				msgs := make([]string, 0, len(items))
				for _, item := range items {
					if item.Msg != "" {
						msgs = append(msgs, item.Msg)
					}
				}
				if len(msgs) > 0 {
					return strings.Join(msgs, "; ")
				}
			}
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := http.StatusText(statusCode); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", statusCode)
}
