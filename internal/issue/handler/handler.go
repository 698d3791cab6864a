// Package handler exposes the issue API over chi. Routes are split into
// public (feeds), authenticated (submission, voting, reporting), and admin
// (moderation, triage) groups; the router mounts each group behind the right
// middleware.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campusvoice/internal/issue/models"
	"campusvoice/internal/issue/service"
	id "campusvoice/pkg/domain"
	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/httputil"
	"campusvoice/pkg/requestcontext"
)

type Handler struct {
	service *service.Service
	logger  *slog.Logger
}

func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// RegisterPublic mounts the routes that need no session.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/issues", h.list)
	r.Get("/issues/{issueID}", h.get)
}

// RegisterAuthenticated mounts the routes that need a valid session.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/issues", h.create)
	r.Delete("/issues/{issueID}", h.deleteOwn)
	r.Post("/issues/{issueID}/vote", h.vote)
	r.Post("/issues/{issueID}/report", h.report)
}

// RegisterAdmin mounts the moderation and triage routes.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/issues/{issueID}/restore", h.restore)
	r.Post("/issues/{issueID}/falsely-accused", h.markFalselyAccused)
	r.Post("/issues/{issueID}/status", h.updateStatus)
	r.Post("/issues/{issueID}/assign", h.assign)
	r.Post("/issues/{issueID}/priority", h.setPriority)
	r.Post("/issues/{issueID}/urgent", h.setUrgent)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createIssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	issue, err := h.service.Create(ctx, service.CreateIssue{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Location:       req.Location,
		MediaURLs:      req.MediaURLs,
		MediaTypes:     req.MediaTypes,
		IsUrgent:       req.IsUrgent,
		AuthorID:       requestcontext.UserID(ctx),
		AuthorNickname: requestcontext.Nickname(ctx),
		AuthorRole:     id.Role(requestcontext.Role(ctx)),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, issue)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.Get(ctx, issueID, requestcontext.UserID(ctx), id.Role(requestcontext.Role(ctx)))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

// list serves the public feed. The reported and deleted moderation views are
// selected with ?view= and restricted to admin sessions.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := service.Filter{
		Category: q.Get("category"),
		Sort:     service.Sort(q.Get("sort")),
	}
	if status := q.Get("status"); status != "" {
		parsed, err := models.ParseStatus(status)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = parsed
	}
	if author := q.Get("author"); author != "" {
		authorID, err := id.ParseUserID(author)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.AuthorID = authorID
	}

	isAdmin := requestcontext.Role(ctx) == string(id.RoleAdmin)
	switch view := q.Get("view"); view {
	case "":
	case "reported", "deleted":
		if !isAdmin {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "moderation views require an admin session"))
			return
		}
		filter.ReportedOnly = view == "reported"
		filter.DeletedOnly = view == "deleted"
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "unknown view"))
		return
	}

	issues, err := h.service.List(ctx, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"issues": issues})
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	kind, err := req.kind()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.Vote(ctx, issueID, requestcontext.UserID(ctx), kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	issue, err := h.service.Report(ctx, issueID, requestcontext.UserID(ctx), req.Reason, req.CustomReason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) deleteOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.DeleteOwn(ctx, issueID, requestcontext.UserID(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.Restore(r.Context(), issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) markFalselyAccused(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.MarkFalselyAccused(r.Context(), issueID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	newStatus, err := req.status()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.UpdateStatus(ctx, issueID, newStatus, req.Note,
		requestcontext.UserID(ctx).String(), requestcontext.Nickname(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	issue, err := h.service.AssignDepartment(r.Context(), issueID, req.Department, req.CustomDepartment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) setPriority(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req priorityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	priority, err := req.priority()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.SetPriority(r.Context(), issueID, priority)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}

func (h *Handler) setUrgent(w http.ResponseWriter, r *http.Request) {
	issueID, err := id.ParseIssueID(chi.URLParam(r, "issueID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req urgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	issue, err := h.service.SetUrgent(r.Context(), issueID, *req.IsUrgent)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, issue)
}
