/**
 * @description
 * HTTP router for the billing service, using the go-chi/chi router with
 * logging, recovery, timeout and CORS middleware.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the billing routes.
func NewRouter(h *Handler, health http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", health)

	r.Route("/api/cobranca", func(r chi.Router) {
		r.Post("/registrar", h.handleRegisterBoleto)
		r.Get("/status/{nossoNumero}", h.handleConsultStatus)
		r.Post("/processar", h.handleRunBilling)
		r.Post("/monitorar", h.handleRunMonitor)
	})

	r.Route("/api/comunicacoes", func(r chi.Router) {
		r.Post("/dispatch", h.handleDispatchNotification)
		r.Get("/logs", h.handleListCommLogs)
		r.Get("/stats", h.handleCommStats)
		r.Get("/settings", h.handleGetSettings)
		r.Put("/settings", h.handleUpdateSettings)
	})

	return r
}
