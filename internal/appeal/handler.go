package appeal

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

// RegisterPublic mounts the submission route. Suspended users cannot hold an
// authenticated session, so submission is public and carries the user ID in
// the body.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/appeals", h.submit)
}

func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/appeals", h.list)
	r.Post("/appeals/{appealID}/approve", h.approve)
	r.Post("/appeals/{appealID}/reject", h.reject)
}

type submitRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Email    string `json:"email,omitempty"`
	Reason   string `json:"reason"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Submit(r.Context(), userID, req.Nickname, req.Email, req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	appeals, err := h.service.List(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"appeals": appeals})
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appealID, err := id.ParseAppealID(chi.URLParam(r, "appealID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	a, err := h.service.Approve(ctx, appealID, requestcontext.Nickname(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	appealID, err := id.ParseAppealID(chi.URLParam(r, "appealID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	a, err := h.service.Reject(ctx, appealID, requestcontext.Nickname(ctx), req.Reason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}
