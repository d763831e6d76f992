package prioritizer

import (
	"log/slog"
	"net/http"

	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
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

func filterFromQuery(r *http.Request) risk.ListFilter {
	return risk.ListFilter{
		Department: r.URL.Query().Get("department"),
		Category:   r.URL.Query().Get("category"),
		Level:      r.URL.Query().Get("level"),
	}
}

// Prioritized serves GET /risks/prioritized.
func (h *Handler) Prioritized(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	items, err := h.Service.Prioritize(actor, filterFromQuery(r))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"risks": items,
		"count": len(items),
	})
}

// Categorized serves GET /risks/categorized.
func (h *Handler) Categorized(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	buckets, err := h.Service.Categorize(actor, filterFromQuery(r))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, buckets)
}
