package handler

import (
	"log/slog"
	"net/http"

	"zeto/internal/domain/models"
	"zeto/internal/httputil"
	"zeto/internal/service/project"
)

// ProjectHandler exposes project and membership management over HTTP.
type ProjectHandler struct {
	service *project.Service
	logger  *slog.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(service *project.Service, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{service: service, logger: logger}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req project.CreateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Create(r.Context(), httputil.GetUserID(r.Context()), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, created)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.service.List(r.Context(), httputil.GetUserID(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"projects": projects})
}

// Get handles GET /api/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// Update handles PATCH /api/projects/{id}
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req project.UpdateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context()), &req)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/projects/{id}
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context())); err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberRequest struct {
	UserID string      `json:"user_id"`
	Role   models.Role `json:"role"`
}

// AddMember handles POST /api/projects/{id}/members
func (h *ProjectHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	member, err := h.service.AddMember(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context()), req.UserID, req.Role)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, member)
}

// ListMembers handles GET /api/projects/{id}/members
func (h *ProjectHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.service.ListMembers(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context()))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

type updateMemberRequest struct {
	Role models.Role `json:"role"`
}

// UpdateMember handles PATCH /api/projects/{id}/members/{userId}
func (h *ProjectHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	var req updateMemberRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := h.service.UpdateMemberRole(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context()), r.PathValue("userId"), req.Role)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/projects/{id}/members/{userId}
func (h *ProjectHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.service.RemoveMember(r.Context(), r.PathValue("id"), httputil.GetUserID(r.Context()), r.PathValue("userId"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
