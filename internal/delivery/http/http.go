package http

import (
	"context"
	"errors"
	"net/http"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"watchlist-sync/internal/dto"
	"watchlist-sync/internal/repository"
	"watchlist-sync/internal/service"
)

// HttpAPIHandler exposes engine state and actions to the external renderer.
type HttpAPIHandler struct {
	echo      *echo.Echo
	validator *goValidator.Validate
	service   *service.Service
}

func NewHttpAPIHandler(ctx context.Context, echo *echo.Echo, validator *goValidator.Validate, service *service.Service) *HttpAPIHandler {
	return &HttpAPIHandler{
		echo:      echo,
		validator: validator,
		service:   service,
	}
}

func (h *HttpAPIHandler) SetupRoutes() {
	base := h.echo.Group("/api")
	h.SetupView(base)
	h.SetupWatchlist(base)
	h.SetupAnalyze(base)
	h.SetupMarket(base)
	h.SetupAccount(base)
	h.SetupNotification(base)
}

func (h *HttpAPIHandler) engine() *service.SyncEngine {
	return h.service.Engine
}

// bind decodes the body into req and validates it.
func (h *HttpAPIHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return h.validator.Struct(req)
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
}

func success(c echo.Context, message string, data interface{}) error {
	return c.JSON(http.StatusOK, dto.NewSuccessResponse(message, data))
}

// respondError maps an action error to a status code. Gateway errors also go through
// the engine so an expired session stops the pollers.
func (h *HttpAPIHandler) respondError(c echo.Context, err error) error {
	h.engine().CheckSession(c.Request().Context(), err)

	code := http.StatusInternalServerError
	var (
		guardErr   *service.DeleteGuardError
		gatewayErr *repository.GatewayError
		validErr   goValidator.ValidationErrors
	)
	switch {
	case errors.Is(err, service.ErrEmptySymbol), errors.As(err, &validErr):
		code = http.StatusBadRequest
	case errors.Is(err, service.ErrSymbolNotFound):
		code = http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateSymbol), errors.Is(err, service.ErrTaskInFlight), errors.As(err, &guardErr):
		code = http.StatusConflict
	case errors.As(err, &gatewayErr):
		switch gatewayErr.Kind {
		case repository.KindUnauthorized:
			code = http.StatusUnauthorized
		case repository.KindNetwork:
			code = http.StatusBadGateway
		default:
			code = http.StatusBadGateway
			if gatewayErr.StatusCode >= 400 && gatewayErr.StatusCode < 500 {
				code = gatewayErr.StatusCode
			}
		}
	}
	return c.JSON(code, dto.NewBaseResponse(code, repository.UserMessage(err), nil))
}
