package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"watchlist-sync/internal/delivery/http"
	"watchlist-sync/pkg/logger"
)

type HTTPServer struct {
	ctx     context.Context
	appDep  *AppDependency
	handler *http.HttpAPIHandler
}

func NewHTTPServer(ctx context.Context, appDep *AppDependency, handler *http.HttpAPIHandler) *HTTPServer {
	return &HTTPServer{
		ctx:     ctx,
		appDep:  appDep,
		handler: handler,
	}
}

func (s *HTTPServer) Start() error {
	s.appDep.log.Info("Starting HTTP server", zap.Int("port", s.appDep.cfg.API.Port))
	address := fmt.Sprintf("127.0.0.1:%d", s.appDep.cfg.API.Port)

	s.SetupRoutes()

	return s.appDep.echo.Start(address)
}

func (s *HTTPServer) Stop() error {
	s.appDep.log.Info("Shutting down HTTP server")

	// the parent context is already cancelled at this point
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), 10*time.Second)
	defer cancel()

	stopDone := make(chan error, 1)
	go func() {
		err := s.appDep.echo.Shutdown(ctx)
		if err != nil {
			s.appDep.log.Error("Error When Stop HTTP server", zap.Error(err))
		}
		stopDone <- nil
	}()

	select {
	case <-stopDone:
		s.appDep.log.Info("HTTP server stopped successfully")
	case <-ctx.Done():
		s.appDep.log.Warn("Timeout while stopping HTTP server, forcing shutdown")
	}
	return nil
}

func (s *HTTPServer) SetupRoutes() {
	s.appDep.echo.Use(s.requestLogger)
	s.handler.SetupRoutes()
}

// requestLogger tags every line logged while serving a request, including the
// background work it starts, with a request id.
func (s *HTTPServer) requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	base := s.appDep.log.Component("api")
	return func(c echo.Context) error {
		req := c.Request()
		log := base.With(
			logger.StringField("request_id", uuid.NewString()),
			logger.StringField("route", req.Method+" "+c.Path()),
		)
		c.SetRequest(req.WithContext(logger.NewContext(req.Context(), log)))
		return next(c)
	}
}
