// Package api exposes the OCR worker over HTTP.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/papersnap/ocr-worker/internal/config"
	"github.com/papersnap/ocr-worker/internal/engine"
	"github.com/papersnap/ocr-worker/internal/fusion"
	"github.com/papersnap/ocr-worker/internal/metrics"
)

// Service is the analysis surface the handlers depend on.
type Service interface {
	Analyze(ctx context.Context, filePath, documentID string) (*fusion.Document, error)
	Engines(ctx context.Context, refresh bool) []engine.Descriptor
	SetEngineEnabled(ctx context.Context, id string, enabled bool) ([]engine.Descriptor, error)
}

// Server handles the HTTP API
type Server struct {
	app     *fiber.App
	config  *config.Config
	service Service
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a new API server
func New(cfg *config.Config, service Service, m *metrics.Metrics, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{
		app:     app,
		config:  cfg,
		service: service,
		metrics: m,
		logger:  log,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	api := s.app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Get("/metrics", s.handleMetricsJSON)
	api.Get("/engines", s.handleListEngines)
	api.Post("/engines/:id", s.handleToggleEngine)
	api.Post("/analyze", s.handleAnalyze)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Address, s.config.Server.Port)
	s.logger.Info("starting OCR worker", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}
