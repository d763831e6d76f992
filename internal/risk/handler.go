package risk

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/eslam-almahdy/RSS-1.0/internal/transport"
	"github.com/eslam-almahdy/RSS-1.0/pkg/logger"
	"github.com/go-chi/chi"
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

// CreateRisk serves POST /risks.
func (h *Handler) CreateRisk(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CreateRiskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Service.Create(actor, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, created)
}

// GetRisk serves GET /risks/{riskID}.
func (h *Handler) GetRisk(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	found, err := h.Service.Get(actor, chi.URLParam(r, "riskID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, found)
}

// ListRisks serves GET /risks with optional department, category and level
// filters.
func (h *Handler) ListRisks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	filter := ListFilter{
		Department: r.URL.Query().Get("department"),
		Category:   r.URL.Query().Get("category"),
		Level:      r.URL.Query().Get("level"),
	}

	risks, err := h.Service.List(actor, filter)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"risks": risks,
		"count": len(risks),
	})
}

// UpdateRisk serves PUT /risks/{riskID}. The body must carry the version the
// caller last read; stale versions are rejected with 409.
func (h *Handler) UpdateRisk(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto UpdateRiskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.Service.Update(actor, chi.URLParam(r, "riskID"), dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, updated)
}

// CloseRisk serves POST /risks/{riskID}/close.
func (h *Handler) CloseRisk(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	closed, err := h.Service.Close(actor, chi.URLParam(r, "riskID"))
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, closed)
}

// RiskHistory serves GET /risks/{riskID}/history, oldest version first.
func (h *Handler) RiskHistory(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	riskID := chi.URLParam(r, "riskID")
	snapshots, err := h.Service.History(actor, riskID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"risk_id":  riskID,
		"versions": snapshots,
		"count":    len(snapshots),
	})
}
