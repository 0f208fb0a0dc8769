package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvettori/newsdesk/internal/fetch"
	"github.com/mvettori/newsdesk/internal/kv"
)

// HealthHandler reports whether the database, the kv store, and the adapter
// registry are usable, plus the last fetch-run snapshot.
type HealthHandler struct {
	Pool         *pgxpool.Pool
	State        kv.Store
	AdapterCount int
}

type healthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Check handles GET /api/health. It returns 200 when every check passes and
// 503 otherwise.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	checks := map[string]healthCheck{}

	if err := h.Pool.Ping(ctx); err != nil {
		checks["database"] = healthCheck{"error", "database connection failed: " + err.Error()}
	} else {
		checks["database"] = healthCheck{"ok", "database connection successful"}
	}

	checks["cache"] = h.checkState(r)

	adapterStatus := "ok"
	if h.AdapterCount < 3 {
		adapterStatus = "warning"
	}
	checks["adapters"] = healthCheck{
		Status:  adapterStatus,
		Message: fmt.Sprintf("%d news adapters registered", h.AdapterCount),
	}

	healthy := true
	for _, c := range checks {
		if c.Status == "error" {
			healthy = false
		}
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}

	if metrics, err := fetch.LastMetrics(ctx, h.State); err == nil && metrics != nil {
		body["last_fetch"] = metrics
	}

	writeJSON(w, code, body)
}

// checkState does a write/read/delete round trip through the kv store.
func (h *HealthHandler) checkState(r *http.Request) healthCheck {
	ctx := r.Context()
	key := fmt.Sprintf("health_check_%d", time.Now().UnixNano())

	if err := h.State.Put(ctx, key, "test", 10*time.Second); err != nil {
		return healthCheck{"error", "cache write failed: " + err.Error()}
	}
	value, ok, err := h.State.Get(ctx, key)
	if err != nil || !ok || value != "test" {
		return healthCheck{"error", "cache read/write failed"}
	}
	if err := h.State.Delete(ctx, key); err != nil {
		return healthCheck{"error", "cache delete failed: " + err.Error()}
	}
	return healthCheck{"ok", "cache is working"}
}
