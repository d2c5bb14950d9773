// Package web exposes the session-control surface over HTTP and streams
// state changes to dashboards over a websocket.
package web

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/cleargaze/pkg/hub"
	"github.com/teslashibe/cleargaze/pkg/journal"
	"github.com/teslashibe/cleargaze/pkg/pipeline"
)

// Config wires the server to the rest of the process.
type Config struct {
	Manager *pipeline.Manager
	Status  *hub.Hub       // Stream for /ws/status
	Journal *journal.Store // Optional; /api/history returns 503 without it

	// Base is the snapshot new sessions start from. Request bodies may
	// override a few fields.
	Base pipeline.Options

	Logger *slog.Logger
}

// Server is the HTTP session-control server.
type Server struct {
	app     *fiber.App
	manager *pipeline.Manager
	status  *hub.Hub
	journal *journal.Store
	base    pipeline.Options
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewServer builds the fiber app and its routes.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		manager: cfg.Manager,
		status:  cfg.Status,
		journal: cfg.Journal,
		base:    cfg.Base,
		logger:  logger.With("component", "web"),
		ctx:     ctx,
		cancel:  cancel,
	}

	app := fiber.New(fiber.Config{
		AppName:               "cleargaze",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/sessions", s.handleStartSession)
	api.Get("/sessions", s.handleListSessions)
	api.Get("/sessions/:id", s.handleGetSession)
	api.Delete("/sessions/:id", s.handleStopSession)
	api.Get("/history", s.handleHistory)
	api.Get("/history/:id", s.handleHistoryDetail)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))

	s.app = app
	return s
}

// App returns the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info("web server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown closes websocket clients and stops the listener.
func (s *Server) Shutdown() error {
	s.cancel()
	return s.app.Shutdown()
}

func (s *Server) handleStatusWS(c *websocket.Conn) {
	if s.status == nil {
		c.Close()
		return
	}
	s.status.ServeConn(s.ctx, c)
}

// errorHandler renders every error as {"error": "..."}.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
