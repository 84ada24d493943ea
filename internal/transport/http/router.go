package http

import (
	"net/http"
	"time"

	"github.com/card-offer-notifier/internal/config"
	"github.com/card-offer-notifier/internal/domain"
	"github.com/card-offer-notifier/internal/transport/http/handler"
	appmiddleware "github.com/card-offer-notifier/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.Verifier != nil {
		authMw = appmiddleware.Auth(deps.Verifier)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// Manual job triggers: a burst of 2 per client IP, then one per minute.
	jobRL := appmiddleware.NewRateLimiter(rate.Every(time.Minute), 2).
		WithProxyHeaders(cfg.TrustProxyHeaders)

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(deps.Notifications)
	jobH := handler.NewJobHandler(deps.Jobs)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/notifications", notifH.List)
			r.Put("/notifications/read", notifH.MarkRead)
			r.Put("/notifications/{id}", notifH.MarkOne)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
				r.With(jobRL.Limit).Post("/jobs/offer-notifications", jobH.Trigger)
			})
		})
	})

	return r
}
