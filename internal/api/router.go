package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/decisiveml/ruinlab/internal/api/handlers"
	"github.com/decisiveml/ruinlab/pkg/config"
	"github.com/decisiveml/ruinlab/pkg/logger"
)

// HealthChecker reports whether an optional backend is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(mc *handlers.MonteCarloHandler, db HealthChecker, cfg config.APIConfig, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", healthCheckHandler(db)).Methods("GET")

	api := r.PathPrefix("/api/montecarlo").Subrouter()
	api.Use(rateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, log))

	api.HandleFunc("/simulate", mc.Simulate).Methods("POST")
	api.HandleFunc("/strategies/{id}", mc.Strategy).Methods("GET")
	api.HandleFunc("/stream", mc.Stream).Methods("GET")

	// Apply middleware
	r.Use(loggingMiddleware(log))
	r.Use(recoveryMiddleware(log))

	return r
}

// healthCheckHandler returns server health status
func healthCheckHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":  "ok",
			"service": "ruinlab-api",
		}

		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := db.Ping(ctx); err != nil {
				body["status"] = "degraded"
				body["database"] = err.Error()
				respondJSON(w, http.StatusServiceUnavailable, body)
				return
			}
			body["database"] = "ok"
		}

		respondJSON(w, http.StatusOK, body)
	}
}
