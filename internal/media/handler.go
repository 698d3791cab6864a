package media

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	dErrors "campusvoice/pkg/domain-errors"
	"campusvoice/pkg/platform/httputil"
)

// Handler exposes attachment upload. Clients upload first and reference the
// returned URL and kind when creating issues and comments.
type Handler struct {
	uploader Uploader
	maxBytes int64
	logger   *slog.Logger
}

func NewHandler(uploader Uploader, maxBytes int64, logger *slog.Logger) *Handler {
	return &Handler{uploader: uploader, maxBytes: maxBytes, logger: logger}
}

// RegisterAuthenticated mounts the upload route.
func (h *Handler) RegisterAuthenticated(r chi.Router) {
	r.Post("/media", h.upload)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	// Cap the body a little above the file limit so multipart framing does
	// not push a maximum-size file over the edge; Validate enforces the real
	// limit on the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, `a multipart "file" field is required`))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "failed to read upload"))
		return
	}

	upload, err := h.uploader.Upload(r.Context(), header.Filename, content)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, upload)
}
