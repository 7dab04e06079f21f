package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	api "github.com/GriffinCanCode/termrelay/internal/api/http"
	"github.com/GriffinCanCode/termrelay/internal/api/middleware"
	"github.com/GriffinCanCode/termrelay/internal/api/ws"
	"github.com/GriffinCanCode/termrelay/internal/domain/orchestration"
	"github.com/GriffinCanCode/termrelay/internal/domain/resolver"
	"github.com/GriffinCanCode/termrelay/internal/domain/session"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/config"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/logging"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/termrelay/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/termrelay/internal/providers/terminal"
)

// shutdownSlack is added to the session grace period when draining.
const shutdownSlack = 5 * time.Second

// Server wraps the HTTP server and dependencies
type Server struct {
	router    *gin.Engine
	resolver  *resolver.Resolver
	sessions  *session.Manager
	wsHandler *ws.Handler
	tracer    *tracing.Tracer
	logger    *logging.Logger
	config    *config.Config
	metrics   *monitoring.Metrics
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg config.LogConfig) *logging.Logger {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Level,
		Development: cfg.Development,
	})
	if err != nil {
		if cfg.Development {
			return logging.NewDevelopment()
		}
		return logging.NewDefault()
	}
	return logger
}

// NewResolver builds the command resolver and its state source. It is
// shared by the server and the resolve subcommand.
func NewResolver(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) *resolver.Resolver {
	source := orchestration.Instrument(orchestration.NewFromConfig(cfg.Orchestration, logger), metrics)
	return resolver.New(resolver.OptionsFromConfig(cfg.Resolver, cfg.Terminal.Term), source, logger)
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config) (*Server, error) {
	logger := NewLogger(cfg.Logging)
	return newServer(cfg, logger)
}

func newServer(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	logger.Info("Initializing terminal relay",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("term", cfg.Terminal.Term),
		zap.Duration("grace_period", cfg.Terminal.GracePeriod),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("termrelay", logger.Logger)

	res := NewResolver(cfg, logger, metrics)
	launcher := terminal.NewLauncher(terminal.OptionsFromConfig(cfg.Terminal), logger)
	sessions := session.NewManager(res, session.NewPTYLauncher(launcher), session.OptionsFromConfig(cfg.Terminal), metrics, logger)
	wsHandler := ws.NewHandler(sessions, ws.OptionsFromConfig(cfg.Terminal, cfg.Server), metrics, logger).WithTracer(tracer)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	api.NewHandlers(res, metrics).Register(router)
	router.GET("/terminal/:target", wsHandler.HandleTerminal)

	logger.Info("Server initialized successfully")

	return &Server{
		router:    router,
		resolver:  res,
		sessions:  sessions,
		wsHandler: wsHandler,
		tracer:    tracer,
		logger:    logger,
		config:    cfg,
		metrics:   metrics,
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	addr := s.config.Server.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts connections on listener until ctx is done, then ends
// every live terminal session and drains in-flight requests.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Starting HTTP server", zap.String("addr", listener.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Terminal.GracePeriod+shutdownSlack)
	defer cancel()

	// hijacked websocket connections are invisible to http.Server.Shutdown
	if err := s.wsHandler.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("Terminal sessions did not finish in time", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

// Close releases background resources
func (s *Server) Close() error {
	s.tracer.Close()
	s.metrics.Close()
	_ = s.logger.Sync()
	return nil
}
