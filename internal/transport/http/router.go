// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated; the interesting behavior lives in the two gating middlewares.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	entitlementmw "prepgate/internal/entitlement/middleware"
	entitlementsvc "prepgate/internal/entitlement/service"
	"prepgate/internal/platform/middleware/metadata"
	ratelimitmw "prepgate/internal/ratelimit/middleware"
	ratelimitsvc "prepgate/internal/ratelimit/service"
	"prepgate/pkg/platform/httputil"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router needs. Health checkers are keyed by the
// dependency name reported in the health payload.
type Deps struct {
	Logger  *slog.Logger
	Limiter *ratelimitsvc.Service
	Gate    *entitlementsvc.Service
	Health  map[string]HealthChecker
}

// NewRouter wires all endpoints. Protected API routes pass the rate limiter
// first and the entitlement gate second, so an over-limit caller is turned
// away before any subscription lookup happens.
func NewRouter(deps Deps) http.Handler {
	h := &Handler{logger: deps.Logger, health: deps.Health}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(metadata.ClientMetadata)

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(ratelimitmw.RateLimit(deps.Limiter))
		r.Use(entitlementmw.RequireSubscriber(deps.Gate))

		r.Get("/questions/current", h.handleCurrentQuestion)
		r.Post("/diagnostic/sessions", h.handleStartDiagnostic)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, checker := range h.health {
		if err := checker.Health(ctx); err != nil {
			h.logger.ErrorContext(ctx, "health check failed", "dependency", name, "error", err)
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	httputil.WriteJSON(w, status, map[string]any{
		"status": map[int]string{
			http.StatusOK:                 "ok",
			http.StatusServiceUnavailable: "degraded",
		}[status],
		"checks": checks,
	})
}
