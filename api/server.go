/*
server.go - HTTP router and middleware setup

PURPOSE:
  Builds the chi router: middleware stack, CORS policy, and route
  registration for all API endpoints.

USAGE:
  handler := api.NewHandler(store, clock, notifier)
  router := api.NewRouter(handler, allowedOrigins)
  http.ListenAndServe(":8080", router)

SEE ALSO:
  - handlers.go: Endpoint implementations
  - reaper.go: Background link expiry sweep
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter builds the HTTP router with all routes registered.
func NewRouter(h *Handler, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Post("/", h.CreateAccount)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetAccount)
				r.Get("/balance", h.GetBalance)
				r.Get("/statement", h.GetStatement)
				r.Post("/transfer", h.Transfer)

				r.Route("/payment-link", func(r chi.Router) {
					r.Post("/", h.CreateLink)
					r.Get("/", h.ReadLink)
					r.Delete("/", h.DeleteLink)
				})

				r.Route("/redemptions", func(r chi.Router) {
					r.Post("/", h.Redeem)
					r.Get("/", h.ListRedemptions)
				})
			})
		})

		r.Post("/payment-links/pay", h.PayLink)

		r.Route("/redemptions/{id}", func(r chi.Router) {
			r.Get("/", h.GetRedemption)
			r.Post("/validate", h.ValidateRedemption)
		})

		r.Route("/rewards", func(r chi.Router) {
			r.Get("/", h.ListRewards)
			r.Post("/", h.SaveReward)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetReward)
				r.Put("/", h.SaveReward)
				r.Post("/deactivate", h.DeactivateReward)
			})
		})
	})

	return r
}
