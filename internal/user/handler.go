package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

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

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing actor context")
		return
	}

	var dto CreateUserDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.Service.CreateUser(actor, dto)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, account.Sanitized())
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing actor context")
		return
	}

	users, err := h.Service.ListUsers(actor)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	out := make([]map[string]interface{}, len(users))
	for i, u := range users {
		out[i] = u.Sanitized()
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": out})
}

func (h *Handler) userIDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (h *Handler) UnlockUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing actor context")
		return
	}

	id, ok := h.userIDParam(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.Unlock(actor, id); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.Actor(r)
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "missing actor context")
		return
	}

	id, ok := h.userIDParam(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.Service.Deactivate(actor, id); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
