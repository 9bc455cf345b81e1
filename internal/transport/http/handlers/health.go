package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/recipe-hub/internal/logger"
	"github.com/baechuer/recipe-hub/internal/transport/http/dto"
	"github.com/baechuer/recipe-hub/internal/transport/http/response"
)

// Pinger is the connectivity probe of the user store.
type Pinger interface {
	Ping(ctx context.Context) error
}

const defaultPingTimeout = 2 * time.Second

type HealthHandler struct {
	db      Pinger
	timeout time.Duration
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, timeout: defaultPingTimeout}
}

// Health handles GET /health. The service is up whenever it can answer, so the
// status is always 200; a failed store probe only flips "db" to "error".
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			logger.WithCtx(r.Context()).Warn().Err(err).Msg("health: db ping failed")
			dbStatus = "error"
		}
	}

	response.OK(w, dto.HealthResponse{Status: "ok", DB: dbStatus})
}

// Root handles GET /, kept for clients that still probe the old liveness path.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	response.OK(w, dto.MessageResponse{Message: "Healthy"})
}
