package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"donationpool/internal/platform/metrics"
	"donationpool/internal/platform/middleware"
	dErrors "donationpool/pkg/domain-errors"
	"donationpool/pkg/platform/httputil"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig collects what NewRouter mounts next to the pool handler.
type RouterConfig struct {
	Logger         *slog.Logger
	MetricsHandler http.Handler
	HTTPMetrics    *metrics.HTTP
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
}

// NewRouter wires the middleware chain, operational endpoints and the pool API.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logger(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Latency(cfg.HTTPMetrics))
	}
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(notFound)
	r.Get("/health", healthHandler(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	h.Register(r)
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				continue
			}
			resp.Checks[name] = "ok"
		}
		if resp.Status != "ok" {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, resp)
	}
}

// notFound keeps unknown routes on the JSON error contract.
func notFound(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
}
