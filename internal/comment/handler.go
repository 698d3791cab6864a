package comment

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
	r.Get("/issues/{issueID}/comments", h.listByIssue)
}

func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/issues/{issueID}/comments", h.add)
	r.Delete("/comments/{commentID}", h.deleteOwn)
	r.Post("/comments/{commentID}/report", h.report)
}

type addCommentRequest struct {
	Content   string `json:"content"`
	MediaURL  string `json:"media_url,omitempty"`
	MediaType string `json:"media_type,omitempty"`
}

type reportCommentRequest struct {
	Reason       string `json:"reason"`
	CustomReason string `json:"custom_reason,omitempty"`
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req addCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.service.Add(ctx, CreateComment{
		IssueID:        issueID,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		MediaType:      req.MediaType,
		AuthorID:       requestcontext.UserID(ctx),
		AuthorNickname: requestcontext.Nickname(ctx),
		AuthorRole:     id.Role(requestcontext.Role(ctx)),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) listByIssue(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	comments, err := h.service.ListByIssue(r.Context(), issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (h *Handler) deleteOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID, err := id.ParseCommentID(chi.URLParam(r, "commentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteOwn(ctx, commentID, requestcontext.UserID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	commentID, err := id.ParseCommentID(chi.URLParam(r, "commentID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req reportCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	c, err := h.service.Report(ctx, commentID, requestcontext.UserID(ctx), req.Reason, req.CustomReason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}
