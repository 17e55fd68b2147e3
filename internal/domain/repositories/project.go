package repositories

import (
	"context"

	"zeto/internal/domain/models"
)

// ProjectRepository persists projects and their members.
type ProjectRepository interface {
	CreateProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	ListProjects(ctx context.Context, userID string) ([]models.Project, error)
	UpdateProject(ctx context.Context, project *models.Project) error
	// DeleteProject soft-deletes; the row is kept for audit.
	DeleteProject(ctx context.Context, projectID string) error

	AddMember(ctx context.Context, member *models.Member) error
	GetMember(ctx context.Context, projectID, userID string) (*models.Member, error)
	ListMembers(ctx context.Context, projectID string) ([]models.Member, error)
	UpdateMemberRole(ctx context.Context, projectID, userID string, role models.Role) error
	RemoveMember(ctx context.Context, projectID, userID string) error
}
