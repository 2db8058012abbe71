package api

import (
	"strings"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(s.requestLogger())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	s.app.Use(s.rateLimitMiddleware())

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})))
	s.app.Get("/api/metrics", s.handleMetricsJSON)

	s.app.Use("/ws", s.wsUpgradeMiddleware())
	s.app.Get("/ws", websocket.New(s.handleWebSocket))

	api := s.app.Group("/api")

	api.Post("/auth/login", s.handleLogin)

	protected := api.Use(s.authMiddleware())

	protected.Post("/auth/logout", s.handleLogout)
	protected.Get("/auth/me", s.handleCurrentUser)

	protected.Get("/medicines", s.handleListMedicines)
	protected.Post("/medicines", s.handleCreateMedicine)
	protected.Get("/medicines/:id", s.handleGetMedicine)
	protected.Put("/medicines/:id", s.handleUpdateMedicine)
	protected.Delete("/medicines/:id", s.handleDeleteMedicine)
	protected.Get("/medicines/:id/missed-count", s.handleMissedCount)

	protected.Get("/reminders/pending", s.handlePendingToday)
	protected.Get("/reminders/today", s.handleToday)

	protected.Post("/logs/:id/take", s.handleTake)
	protected.Post("/logs/:id/snooze", s.handleSnooze)
	protected.Post("/logs/:id/miss", s.handleMiss)
	protected.Get("/logs/history", s.handleHistory)
	protected.Get("/logs/missed", s.handleMissedHistory)

	protected.Get("/adherence", s.handleAdherence)
	protected.Get("/adherence/summary", s.handleSummary)

	protected.Get("/alert", s.handleAlert)
	protected.Post("/alert/dismiss", s.handleDismissAlert)
}
