/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from proxy headers
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the punch screen frontend

RATE LIMITING:
  Clock endpoints are limited per client IP and user (httprate) so a stuck
  button cannot flood the event log.

ROUTE GROUPS:
  /api/users/*      Punching, records, edits, leave filing
  /api/events/*     Event edits
  /api/leave/*      Leave decisions
  /api/settings     Company settings
  /api/holidays/*   Holiday cache
  /healthz          Store liveness
  /metrics          Prometheus

SECURITY NOTE:
  No authentication middleware. The actor of admin operations is taken
  from the X-Actor-ID header as supplied by an upstream gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

// RouterOptions tunes the router. Zero values give permissive defaults.
type RouterOptions struct {
	CORSOrigins        []string
	RateLimitPerMinute int          // 0 disables the clock limiter
	Metrics            http.Handler // served on /metrics when set
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", ActorHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		// User-scoped routes
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.UpsertUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					if opts.RateLimitPerMinute > 0 {
						r.Use(httprate.Limit(opts.RateLimitPerMinute, time.Minute,
							httprate.WithKeyFuncs(httprate.KeyByIP, func(r *http.Request) (string, error) {
								return chi.URLParam(r, "id"), nil
							}),
						))
					}
					r.Post("/clock/{action}", h.Clock)
				})
				r.Get("/state", h.GetState)
				r.Get("/events", h.GetEvents)
				r.Get("/records", h.GetRecords)
				r.Get("/timeline", h.GetTimeline)
				r.Get("/export", h.GetExport)
				r.Get("/summaries", h.GetSummaries)
				r.Get("/edits", h.GetEdits)
				r.Put("/days/{date}", h.EditDay)
				r.Post("/leave", h.CreateLeave)
			})
		})

		// Event edits
		r.Post("/events/{id}/edit", h.EditEvent)

		// Leave decisions
		r.Route("/leave", func(r chi.Router) {
			r.Get("/", h.ListLeaves)
			r.Post("/{id}/approve", h.ApproveLeave)
			r.Post("/{id}/reject", h.RejectLeave)
		})

		// Admin routes
		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)
		r.Get("/payroll-period", h.GetPayrollPeriod)
		r.Get("/summary", h.GetSummary)

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/refresh", h.RefreshHolidays)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
