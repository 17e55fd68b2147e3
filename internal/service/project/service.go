package project

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"zeto/internal/config"
	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
)

// CreateRequest carries the fields of a new project.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// UpdateRequest carries mutable project fields; nil means unchanged.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
}

// Service manages projects and memberships. Every operation begins with a
// membership lookup; the static role table decides the rest.
type Service struct {
	repo   repositories.ProjectRepository
	logger *slog.Logger
}

// NewService creates a new project service.
func NewService(repo repositories.ProjectRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// requirePermission loads the caller's membership and checks the permission.
func (s *Service) requirePermission(ctx context.Context, projectID, userID string, perm models.Permission) error {
	member, err := s.repo.GetMember(ctx, projectID, userID)
	if err != nil {
		// Non-members learn nothing about the project's existence
		return &domain.ForbiddenError{Message: "not a member of this project"}
	}
	if !member.Role.Can(perm) {
		return &domain.ForbiddenError{Message: fmt.Sprintf("role %q cannot %s", member.Role, perm)}
	}
	return nil
}

// Create creates a project owned by the caller.
func (s *Service) Create(ctx context.Context, userID string, req *CreateRequest) (*models.Project, error) {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxProjectNameLength)),
	)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	project := &models.Project{
		OwnerID:     userID,
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("project created", "project_id", project.ID, "owner_id", userID)

	return project, nil
}

// Get returns a project the caller is a member of.
func (s *Service) Get(ctx context.Context, projectID, userID string) (*models.Project, error) {
	if err := s.requirePermission(ctx, projectID, userID, models.PermView); err != nil {
		return nil, err
	}
	return s.repo.GetProject(ctx, projectID)
}

// List returns all projects the caller is a member of.
func (s *Service) List(ctx context.Context, userID string) ([]models.Project, error) {
	return s.repo.ListProjects(ctx, userID)
}

// Update modifies project fields. Requires the manage permission.
func (s *Service) Update(ctx context.Context, projectID, userID string, req *UpdateRequest) (*models.Project, error) {
	if err := s.requirePermission(ctx, projectID, userID, models.PermManageProject); err != nil {
		return nil, err
	}

	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := validation.Validate(*req.Name, validation.Required, validation.Length(1, config.MaxProjectNameLength)); err != nil {
			return nil, &domain.ValidationError{Message: "name: " + err.Error()}
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Color != nil {
		project.Color = *req.Color
	}

	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}

	return project, nil
}

// Delete soft-deletes a project. Requires the manage permission.
func (s *Service) Delete(ctx context.Context, projectID, userID string) error {
	if err := s.requirePermission(ctx, projectID, userID, models.PermManageProject); err != nil {
		return err
	}
	return s.repo.DeleteProject(ctx, projectID)
}

// AddMember invites a user with a role. Requires the manage permission.
// Granting owner is reserved to the project owner.
func (s *Service) AddMember(ctx context.Context, projectID, userID, newUserID string, role models.Role) (*models.Member, error) {
	if !role.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown role %q", role)}
	}
	if err := s.requirePermission(ctx, projectID, userID, models.PermManageProject); err != nil {
		return nil, err
	}
	if role == models.RoleOwner {
		project, err := s.repo.GetProject(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if project.OwnerID != userID {
			return nil, &domain.ForbiddenError{Message: "only the project owner can grant the owner role"}
		}
	}

	member := &models.Member{
		ProjectID: projectID,
		UserID:    newUserID,
		Role:      role,
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}

	s.logger.Info("member added", "project_id", projectID, "user_id", newUserID, "role", role)

	return member, nil
}

// ListMembers returns all members. Requires view permission.
func (s *Service) ListMembers(ctx context.Context, projectID, userID string) ([]models.Member, error) {
	if err := s.requirePermission(ctx, projectID, userID, models.PermView); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, projectID)
}

// UpdateMemberRole changes a member's role. Requires the manage permission.
// The project owner's membership cannot be downgraded.
func (s *Service) UpdateMemberRole(ctx context.Context, projectID, userID, targetUserID string, role models.Role) error {
	if !role.Valid() {
		return &domain.ValidationError{Message: fmt.Sprintf("unknown role %q", role)}
	}
	if err := s.requirePermission(ctx, projectID, userID, models.PermManageProject); err != nil {
		return err
	}

	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if targetUserID == project.OwnerID {
		return &domain.ForbiddenError{Message: "the project owner's role cannot be changed"}
	}

	return s.repo.UpdateMemberRole(ctx, projectID, targetUserID, role)
}

// RemoveMember removes a member. Requires the manage permission; the owner
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, projectID, userID, targetUserID string) error {
	if err := s.requirePermission(ctx, projectID, userID, models.PermManageProject); err != nil {
		return err
	}

	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if targetUserID == project.OwnerID {
		return &domain.ForbiddenError{Message: "the project owner cannot be removed"}
	}

	return s.repo.RemoveMember(ctx, projectID, targetUserID)
}

// CanAccess reports whether the user holds the permission on the project.
// Used by other services (chat, documents) without duplicating the lookup.
func (s *Service) CanAccess(ctx context.Context, projectID, userID string, perm models.Permission) error {
	return s.requirePermission(ctx, projectID, userID, perm)
}
