package identity

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/httputil"
	"campusvoice/pkg/requestcontext"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(svc *Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/auth/login", h.login)
}

func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/auth/logout", h.logout)
	r.Get("/auth/session", h.restore)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/users/{userID}/suspend", h.suspend)
	r.Post("/users/{userID}/unsuspend", h.unsuspend)
}

type loginRequest struct {
	Role       string `json:"role"`
	AccessCode string `json:"access_code"`
	Nickname   string `json:"nickname,omitempty"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password,omitempty"`
}

type loginResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	role, err := id.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, LoginRequest{
		Role:       role,
		AccessCode: req.AccessCode,
		Nickname:   req.Nickname,
		Email:      req.Email,
		Password:   req.Password,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, loginResponse{Token: result.Token, Session: result.Session})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Logout(ctx, requestcontext.UserID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := h.service.Restore(ctx, requestcontext.UserID(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) suspend(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Suspend(r.Context(), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) unsuspend(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Unsuspend(r.Context(), userID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
