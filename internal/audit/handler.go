package audit

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/eslam-almahdy/RSS-1.0/internal/transport"
	"github.com/eslam-almahdy/RSS-1.0/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(svc *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// GetTrail serves GET /audit. Filters: entity_type, entity_id, from, to
// (RFC 3339) and limit.
func (h *Handler) GetTrail(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing actor context")
		return
	}

	filter := TrailFilter{
		EntityType: r.URL.Query().Get("entity_type"),
		EntityID:   r.URL.Query().Get("entity_id"),
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.From = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.To = t
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}

	entries, err := h.Service.GetTrail(actor, filter)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
