package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/ecomkit/gateway/infra/opensearch"
	"github.com/ecomkit/gateway/infra/response"
)

// HealthHandler reports service liveness and dependency health.
type HealthHandler struct {
	db      *sql.DB
	search  *opensearch.Client
	started time.Time
}

// NewHealthHandler creates a new health handler. search may be nil when the
// audit sink is disabled.
func NewHealthHandler(db *sql.DB, search *opensearch.Client) *HealthHandler {
	return &HealthHandler{db: db, search: search, started: time.Now()}
}

// Live handles GET /health.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.Success(w, http.StatusOK, "ok", map[string]any{
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	})
}

// Ready handles GET /health/ready and checks the database plus the optional
// audit sink.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.search != nil {
		if err := h.search.Ping(ctx); err != nil {
			// audit sink is best-effort; degraded, not down
			checks["opensearch"] = err.Error()
		} else {
			checks["opensearch"] = "ok"
		}
	}

	if !healthy {
		response.Error(w, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	response.Success(w, http.StatusOK, "ready", checks)
}
