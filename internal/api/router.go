package api

import (
	"net/http"

	mw "github.com/closersai/leadgen/internal/api/middleware"
	"github.com/closersai/leadgen/internal/api/response"
	"github.com/closersai/leadgen/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler

	CreateJobHandler http.HandlerFunc
	ListJobsHandler  http.HandlerFunc
	GetJobHandler    http.HandlerFunc
	JobStatusHandler http.HandlerFunc
	DeleteJobHandler http.HandlerFunc

	CallbackHandler http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
// The paths under /jobs and /webhooks are part of the external contract with
// the workflow engine and the UI, so they are mounted unversioned.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(metrics.Middleware)

	// Public endpoints
	r.Get("/health", orNotImplemented(deps.HealthHandler))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// The callback authenticates with the shared secret, not an API key.
	r.Post("/webhooks/workflow", orNotImplemented(deps.CallbackHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/jobs", orNotImplemented(deps.CreateJobHandler))
		r.Get("/jobs", orNotImplemented(deps.ListJobsHandler))
		r.Get("/jobs/{jobID}", orNotImplemented(deps.GetJobHandler))
		r.Get("/jobs/{jobID}/status", orNotImplemented(deps.JobStatusHandler))
		r.Delete("/jobs/{jobID}", orNotImplemented(deps.DeleteJobHandler))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
