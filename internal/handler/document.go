package handler

import (
	"io"
	"log/slog"
	"net/http"

	"zeto/internal/domain"
	"zeto/internal/httputil"
	"zeto/internal/service/document"
)

// maxUploadBytes caps multipart document uploads.
const maxUploadBytes = 50 << 20

// DocumentHandler exposes document upload, listing, and PDF extraction.
type DocumentHandler struct {
	service *document.Service
	logger  *slog.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(service *document.Service, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{service: service, logger: logger}
}

// Upload handles POST /api/projects/{id}/documents as multipart form data
// with a single "file" part.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(r.Context(), httputil.GetUserID(r.Context()), &document.UploadRequest{
		ProjectID: r.PathValue("id"),
		Name:      header.Filename,
		MimeType:  header.Header.Get("Content-Type"),
		Size:      header.Size,
		Body:      file,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// List handles GET /api/projects/{id}/documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"documents": docs})
}

// Get handles GET /api/documents/{id}
func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Get(r.Context(), httputil.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/documents/{id}
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), httputil.GetUserID(r.Context()), r.PathValue("id")); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExtractPDF handles POST /api/extract-pdf?fileId=...&fileName=...&projectId=...
// with the raw PDF bytes as the request body.
func (h *DocumentHandler) ExtractPDF(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fileID := q.Get("fileId")
	if fileID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "fileId query parameter is required")
		return
	}
	projectID := q.Get("projectId")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "projectId query parameter is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		handleError(w, h.logger, &domain.ValidationError{Message: "request body is empty"})
		return
	}

	result, err := h.service.ExtractPDF(r.Context(), httputil.GetUserID(r.Context()), &document.ExtractRequest{
		FileID:    fileID,
		FileName:  q.Get("fileName"),
		ProjectID: projectID,
		Body:      body,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}
