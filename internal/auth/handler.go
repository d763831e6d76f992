package auth

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/eslam-almahdy/RSS-1.0/internal"
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

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.Service.Authenticate(dto, clientIP(r), r.UserAgent())
	if err != nil {
		h.Logger.Warn("authentication failed", "username", dto.Username, "error", err)
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, LoginResponse{
		Token: result.Token,
		User:  result.User.Sanitized(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	if err := h.Service.Logout(token); err != nil {
		h.WriteServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Session serves GET /auth/session, returning the user behind a valid token.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	token := h.ExtractTokenFromHeader(r)
	if token == "" {
		h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
		return
	}

	user, err := h.Service.ValidateSession(token)
	if err != nil {
		h.WriteServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, user.Sanitized())
}

// AuthMiddleware resolves the actor once from the session token and threads
// it through the request context. Downstream services never look at the
// token again.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		user, err := h.Service.ValidateSession(token)
		if err != nil {
			h.WriteServiceError(w, err)
			return
		}

		actor := user.Actor()
		ctx := internal.ContextWithActor(r.Context(), actor)
		ctx = logger.With(ctx, "username", actor.Username, "department", actor.Department)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
