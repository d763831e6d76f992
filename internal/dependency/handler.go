package dependency

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/eslam-almahdy/RSS-1.0/internal"
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

// CreateDependency serves POST /dependencies.
func (h *Handler) CreateDependency(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto CreateDependencyDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	edge, err := h.Service.Add(actor, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, edge)
}

// RiskChains serves GET /risks/{riskID}/chains?max_depth=N.
func (h *Handler) RiskChains(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	maxDepth := DefaultMaxDepth
	if raw := r.URL.Query().Get("max_depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.WriteError(w, http.StatusBadRequest, "max_depth must be a positive integer")
			return
		}
		maxDepth = parsed
	}

	riskID := chi.URLParam(r, "riskID")
	chains, err := h.Service.Chains(actor, riskID, maxDepth)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"risk_id":   riskID,
		"max_depth": maxDepth,
		"chains":    chains,
		"count":     len(chains),
	})
}

// AmplifiedImpact serves POST /dependencies/amplified-impact with an
// explicit chain in the body.
func (h *Handler) AmplifiedImpact(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var dto AmplifiedImpactDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	amplified, err := h.Service.AmplifiedImpact(actor, dto.Chain)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"chain":            dto.Chain,
		"amplified_impact": amplified,
	})
}

// CriticalRisks serves GET /dependencies/critical?threshold=N.
func (h *Handler) CriticalRisks(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	threshold := 0.0
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			h.WriteError(w, http.StatusBadRequest, "threshold must be a non-negative number")
			return
		}
		threshold = parsed
	}

	critical, err := h.Service.CriticalRisks(actor, threshold)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"threshold": threshold,
		"risks":     critical,
		"count":     len(critical),
	})
}

// Downstream serves GET /risks/{riskID}/downstream.
func (h *Handler) Downstream(w http.ResponseWriter, r *http.Request) {
	h.edges(w, r, h.Service.Downstream)
}

// Upstream serves GET /risks/{riskID}/upstream.
func (h *Handler) Upstream(w http.ResponseWriter, r *http.Request) {
	h.edges(w, r, h.Service.Upstream)
}

func (h *Handler) edges(w http.ResponseWriter, r *http.Request, load func(actor internal.Actor, riskID string) ([]*Interdependency, error)) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	riskID := chi.URLParam(r, "riskID")
	edges, err := load(actor, riskID)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"risk_id":      riskID,
		"dependencies": edges,
		"count":        len(edges),
	})
}
