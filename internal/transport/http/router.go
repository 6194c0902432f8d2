// Package httptransport assembles the API surface. Feature handlers own
// their routes; this router owns the middleware chain and the operational
// endpoints.
package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expedientes/internal/platform/metrics"
	"expedientes/internal/platform/middleware"
)

// Registrar is a feature handler that wires its routes into a router.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar is a feature handler with unauthenticated routes.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// HealthChecker reports readiness of a backing dependency.
type HealthChecker func() error

// Deps carries everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.ActorValidator

	Public    []PublicRegistrar
	Protected []Registrar

	// Health checks run on /health; a failing check flips the endpoint
	// to 503.
	Health map[string]HealthChecker
}

// NewRouter builds the full HTTP handler.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.LatencyMiddleware(deps.Metrics))

	r.Get("/health", handleHealth(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.ContentTypeJSON)

		for _, h := range deps.Public {
			h.RegisterPublic(api)
		}

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
			for _, h := range deps.Protected {
				h.Register(protected)
			}
		})
	})

	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func handleHealth(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(); err != nil {
					resp.Checks[name] = err.Error()
					resp.Status = "degraded"
					status = http.StatusServiceUnavailable
					continue
				}
				resp.Checks[name] = "ok"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
