// Package httpapi exposes the REST surface over the lifecycle services.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	config "github.com/wakequeue/wakequeue/config/utils"
)

// NewRouter builds the chi router. Claim-side endpoints sit behind the
// automation bearer token; everything else is open to the UI.
func NewRouter(cfg *config.HTTP, h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Owner-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", h.listTasks)
		r.Post("/tasks", h.createTask)
		r.Put("/tasks", h.updateTaskStatus)
		r.Post("/notify", h.notify)

		r.Get("/devices", h.listDevices)
		r.Post("/devices", h.saveDevice)
		r.Delete("/devices/{id}", h.deleteDevice)
		r.Post("/devices/{id}/wake", h.wakeDevice)

		r.Get("/agents", h.listAgents)

		r.Group(func(r chi.Router) {
			r.Use(h.requireAgentToken)
			r.Get("/tasks/pending", h.listPending)
			r.Post("/tasks/claim", h.claimPending)
		})
	})

	return r
}

// NewServer wraps the router in an http.Server with sane timeouts
func NewServer(cfg *config.HTTP, h *Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg, h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
