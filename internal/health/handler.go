package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"student-manager/internal/httputil"
	"student-manager/internal/metrics"

	"github.com/go-chi/chi/v5"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// DependencyDatabase names the store in readiness metrics.
const DependencyDatabase = "database"

type Handler struct {
	store   Pinger
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewHandler(store Pinger, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{store: store, logger: logger, metrics: metrics}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready answers 503 while the store cannot be reached.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		start := time.Now()
		err := h.store.PingContext(ctx)
		h.metrics.RecordDependencyCheck(r.Context(), DependencyDatabase, time.Since(start), err)
		if err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			httputil.RespondWithJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Error: err.Error()})
			return
		}
	}
	httputil.RespondWithJSON(w, http.StatusOK, HealthResponse{Status: "ready"})
}
