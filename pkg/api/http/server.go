package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/aescanero/swapd/internal/application/orchestrator"
	"github.com/aescanero/swapd/internal/application/workers"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server represents the HTTP API server
type Server struct {
	router  *gin.Engine
	server  *http.Server
	orders  *orchestrator.OrderService
	workers *workers.Pool
	logger  *zap.Logger
}

// Config holds HTTP server configuration
type Config struct {
	Port     int
	Orders   *orchestrator.OrderService
	Workers  *workers.Pool
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger
}

// StreamHandler serves the order status stream
type StreamHandler interface {
	HandleOrderStream(c *gin.Context)
}

// NewServer creates a new HTTP server
func NewServer(cfg *Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(cfg.Logger))
	router.Use(corsMiddleware())

	s := &Server{
		router:  router,
		orders:  cfg.Orders,
		workers: cfg.Workers,
		logger:  cfg.Logger,
	}

	s.setupRoutes(cfg.Gatherer)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the routed handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(gatherer prometheus.Gatherer) {
	// Health checks
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/health-check", s.handleHealthCheck)

	// Metrics
	metricsHandler := promhttp.Handler()
	if gatherer != nil {
		metricsHandler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	s.router.GET("/metrics", gin.WrapH(metricsHandler))

	api := s.router.Group("/api")
	{
		api.POST("/orders/execute", s.handleExecuteOrder)
		api.GET("/orders", s.handleListOrders)
		api.GET("/orders/failures", s.handleListFailures)
		api.GET("/orders/:id", s.handleGetOrder)

		api.GET("/workers", s.handleListWorkers)
	}
}

// SetupWebSocket mounts the order stream
func (s *Server) SetupWebSocket(handler StreamHandler) {
	s.router.GET("/ws/orders", handler.HandleOrderStream)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.logger.Info("HTTP server shut down complete")
	return nil
}
