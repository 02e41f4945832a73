package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crucible-ai/crucible/internal/config"
	"github.com/crucible-ai/crucible/internal/health"
)

// NewServer assembles the API mux, probe endpoints, and middleware chain
// into a configured http.Server. The caller owns startup and shutdown.
func NewServer(cfg config.ServerConfig, rl config.RateLimitConfig, handler *Handler, manager *health.Manager, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	registerProbes(mux, manager)

	var root http.Handler = mux
	if rl.Enabled && rl.RequestsPerMinute > 0 {
		root = WithRateLimit(rl.RequestsPerMinute, logger, root)
	}
	root = WithLogging(logger, root)
	root = WithRequestID(root)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// registerProbes wires the health and readiness endpoints. Probes bypass
// rate limiting only in the sense that limits are generous; they share the
// middleware chain.
func registerProbes(mux *http.ServeMux, manager *health.Manager) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		overall := manager.Check(r.Context())
		status := http.StatusOK
		if overall.Status == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, overall)
	})
	mux.HandleFunc("GET /readiness", func(w http.ResponseWriter, r *http.Request) {
		if manager.IsReady(r.Context()) {
			writeJSON(w, http.StatusOK, map[string]any{"ready": true})
			return
		}
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ready": false})
	})
}
