package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/chimehq/roi-intake/pkg/logging"
)

// Pinger checks a dependency's liveness. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the health endpoint with a database connectivity check.
type Handler struct {
	db     Pinger
	logger *logging.Logger
}

// NewHandler creates a health handler. A nil db skips the database check.
func NewHandler(db Pinger, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{db: db, logger: logger}
}

// Check reports overall service health. The response stays 200 with a
// degraded status when the database is down so load balancers keep routing
// to the API, which can still serve calculate requests.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	database := "not configured"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.Warn("health check database ping failed", "error", err)
			status = "degraded"
			database = "error: " + err.Error()
		} else {
			database = "healthy"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":    status,
		"service":   "roi-intake",
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
