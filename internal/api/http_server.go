package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"fitbook/internal/config"
	"fitbook/internal/domain"
	"fitbook/internal/timezone"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HTTPServer serves the booking API.
type HTTPServer struct {
	cfg    config.APIConfig
	engine *gin.Engine
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	app config.AppConfig,
	bookings domain.BookingService,
	queries domain.QueryService,
	tz *timezone.Converter,
	logger *zerolog.Logger,
) *HTTPServer {
	h := &handler{
		bookings: bookings,
		queries:  queries,
		tz:       tz,
		validate: newValidator(),
		appName:  app.Name,
		version:  app.Version,
		prefix:   cfg.Prefix,
		logger:   logger,
		now:      time.Now,
	}

	engine := gin.New()
	engine.Use(
		requestIDMiddleware(),
		recoveryMiddleware(logger),
		accessLogMiddleware(logger),
		corsMiddleware(cfg.CORS),
		newRateLimiter(cfg.RateLimit).middleware(),
	)
	engine.NoRoute(h.notFound)

	engine.GET("/", h.root)

	v1 := engine.Group(cfg.Prefix)
	{
		v1.GET("/health", h.health)
		v1.GET("/classes", h.listClasses)
		v1.GET("/classes/:class_id", h.getClass)
		v1.POST("/book", h.createBooking)
		v1.GET("/bookings", h.listBookings)
	}

	srv := &HTTPServer{cfg: cfg, engine: engine, logger: logger}
	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           engine,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}

	return srv
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Start blocks serving HTTP until Shutdown is called.
func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Str("prefix", s.cfg.Prefix).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
