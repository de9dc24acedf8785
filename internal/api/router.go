package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"equipment-risk-gateway/internal/auth"
)

// NewDataRouter serves the batch ingestion port. Every ingest request must
// carry a valid API key.
func NewDataRouter(h *Handler, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.With(authManager.APIKeyMiddleware).Post("/data", h.HandleIngest)
	return r
}

// NewManagementRouter serves the JSON management API and the websocket
// feed. Mutating settings routes require an operator token.
func NewManagementRouter(h *Handler, authManager *auth.Manager) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", h.HandleLogin)

		r.Get("/history", h.HandleHistory)
		r.Get("/predictions", h.HandlePredictions)
		r.Get("/trends", h.HandleTrends)

		r.Get("/thresholds", h.HandleGetThresholds)
		r.With(authManager.JWTMiddleware).Put("/thresholds", h.HandleUpdateThresholds)

		r.Route("/maintenance", func(r chi.Router) {
			r.Get("/", h.HandleListTasks)
			r.Post("/", h.HandleCreateTask)
			r.Post("/auto-schedule", h.HandleAutoSchedule)
			r.Get("/{id}", h.HandleGetTask)
			r.Put("/{id}", h.HandleUpdateTask)
			r.Delete("/{id}", h.HandleDeleteTask)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/settings", h.HandleGetAlertSettings)
			r.With(authManager.JWTMiddleware).Put("/settings", h.HandleUpdateAlertSettings)
			r.Get("/log", h.HandleAlertLog)
			r.Post("/test", h.HandleTestAlert)
		})
	})

	r.Get("/ws", h.HandleWebSocket)
	return r
}
