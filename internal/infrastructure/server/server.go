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

	apihttp "github.com/ssfdre38/copilot-android-client-sub000/internal/api/http"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/api/middleware"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/backend"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/config"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/logging"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/monitoring"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/infrastructure/tracing"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/ws"
)

// Server wraps the bridge's HTTP server and dependencies
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
	ws         *ws.Handler
	tracer     *tracing.Tracer
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new bridge server instance
func NewServer(cfg *config.Config, version string, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	logger.Info("Initializing Copilot bridge",
		zap.String("addr", cfg.Bridge.Addr()),
		zap.String("backend", cfg.Bridge.Backend),
		zap.Bool("auth", cfg.Bridge.APIKey != ""),
		zap.Bool("tls", cfg.Bridge.TLS()),
	)

	factory, err := backend.NewFactory(cfg.Bridge.Backend, cfg.Bridge.Command)
	if err != nil {
		return nil, fmt.Errorf("failed to configure backend: %w", err)
	}

	auth, err := ws.NewAuthenticator(cfg.Bridge.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to configure authentication: %w", err)
	}

	metrics := monitoring.NewMetrics()
	tracer := tracing.New("bridge", logger.Logger)
	wsHandler := ws.NewHandler(factory, auth, logger.Logger, metrics)
	handlers := apihttp.NewHandlers(version, wsHandler, wsHandler.HandleConnection, metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rl.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rl))
	}

	// Clients connect to ws://host:port directly; /ws is an explicit alias.
	router.GET("/", handlers.Root)
	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/health", handlers.Health)
	router.GET("/stats", handlers.Stats)
	router.GET("/metrics", monitoring.GinHandler(metrics))

	logger.Info("Bridge initialized successfully")

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Bridge.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ws:      wsHandler,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the bridge's metrics collector.
func (s *Server) Metrics() *monitoring.Metrics {
	return s.metrics
}

// Run starts the HTTP server and blocks until it stops. It serves TLS when a
// certificate and key are configured.
func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Starting HTTP server", zap.String("addr", ln.Addr().String()), zap.Bool("tls", s.config.Bridge.TLS()))

	var err error
	if s.config.Bridge.TLS() {
		err = s.httpServer.ServeTLS(ln, s.config.Bridge.TLSCert, s.config.Bridge.TLSKey)
	} else {
		err = s.httpServer.Serve(ln)
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown sends close 1001 to every client, then stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	s.ws.Close()
	err := s.httpServer.Shutdown(ctx)
	s.tracer.Close()
	if err != nil {
		s.logger.Error("Failed to shut down HTTP server", zap.Error(err))
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	s.logger.Info("Server shutdown complete")
	return nil
}

// Close shuts the server down with a five second grace period.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
