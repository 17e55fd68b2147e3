package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"zeto/internal/domain"
	"zeto/internal/domain/models"
	"zeto/internal/domain/repositories"
)

// PostgresProjectRepository implements ProjectRepository using PostgreSQL
type PostgresProjectRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewProjectRepository creates a new PostgresProjectRepository
func NewProjectRepository(config *RepositoryConfig) repositories.ProjectRepository {
	return &PostgresProjectRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// CreateProject inserts a project and its owner membership.
func (r *PostgresProjectRepository) CreateProject(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (owner_id, name, description, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING id, created_at, updated_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		project.OwnerID,
		project.Name,
		project.Description,
		project.Color,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("project '%s' already exists: %w", project.Name, domain.ErrConflict)
		}
		return fmt.Errorf("create project: %w", err)
	}

	memberQuery := fmt.Sprintf(`
		INSERT INTO %s (project_id, user_id, role, added_at)
		VALUES ($1, $2, $3, now())
	`, r.tables.Members)

	if _, err := executor.Exec(ctx, memberQuery, project.ID, project.OwnerID, models.RoleOwner); err != nil {
		return fmt.Errorf("create owner membership: %w", err)
	}

	return nil
}

// GetProject retrieves a project by ID
func (r *PostgresProjectRepository) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, owner_id, name, description, color, created_at, updated_at, deleted_at
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Projects)

	var project models.Project
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, projectID).Scan(
		&project.ID,
		&project.OwnerID,
		&project.Name,
		&project.Description,
		&project.Color,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.DeletedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	return &project, nil
}

// ListProjects retrieves all projects the user is a member of
func (r *PostgresProjectRepository) ListProjects(ctx context.Context, userID string) ([]models.Project, error) {
	query := fmt.Sprintf(`
		SELECT p.id, p.owner_id, p.name, p.description, p.color, p.created_at, p.updated_at, p.deleted_at
		FROM %s p
		JOIN %s m ON m.project_id = p.id
		WHERE m.user_id = $1 AND p.deleted_at IS NULL
		ORDER BY p.updated_at DESC
	`, r.tables.Projects, r.tables.Members)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.Color, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}

	return projects, rows.Err()
}

// UpdateProject updates mutable project fields
func (r *PostgresProjectRepository) UpdateProject(ctx context.Context, project *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET name = $2, description = $3, color = $4, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, project.ID, project.Name, project.Description, project.Color).
		Scan(&project.UpdatedAt)

	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("project %s: %w", project.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("update project: %w", err)
	}

	return nil
}

// DeleteProject soft-deletes a project
func (r *PostgresProjectRepository) DeleteProject(ctx context.Context, projectID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = now()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Projects)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, projectID)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", projectID, domain.ErrNotFound)
	}

	return nil
}

// AddMember adds a user to a project
func (r *PostgresProjectRepository) AddMember(ctx context.Context, member *models.Member) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, user_id, role, added_at)
		VALUES ($1, $2, $3, now())
		RETURNING added_at
	`, r.tables.Members)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, member.ProjectID, member.UserID, member.Role).Scan(&member.AddedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user %s is already a member: %w", member.UserID, domain.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("project %s: %w", member.ProjectID, domain.ErrNotFound)
		}
		return fmt.Errorf("add member: %w", err)
	}

	return nil
}

// GetMember retrieves a single membership
func (r *PostgresProjectRepository) GetMember(ctx context.Context, projectID, userID string) (*models.Member, error) {
	query := fmt.Sprintf(`
		SELECT project_id, user_id, role, added_at
		FROM %s
		WHERE project_id = $1 AND user_id = $2
	`, r.tables.Members)

	var member models.Member
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, projectID, userID).Scan(
		&member.ProjectID,
		&member.UserID,
		&member.Role,
		&member.AddedAt,
	)

	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("membership %s/%s: %w", projectID, userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get member: %w", err)
	}

	return &member, nil
}

// ListMembers retrieves all members of a project
func (r *PostgresProjectRepository) ListMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	query := fmt.Sprintf(`
		SELECT project_id, user_id, role, added_at
		FROM %s
		WHERE project_id = $1
		ORDER BY added_at ASC
	`, r.tables.Members)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.ProjectID, &m.UserID, &m.Role, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// UpdateMemberRole changes an existing member's role
func (r *PostgresProjectRepository) UpdateMemberRole(ctx context.Context, projectID, userID string, role models.Role) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET role = $3
		WHERE project_id = $1 AND user_id = $2
	`, r.tables.Members)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, projectID, userID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", projectID, userID, domain.ErrNotFound)
	}

	return nil
}

// RemoveMember removes a user from a project
func (r *PostgresProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE project_id = $1 AND user_id = $2
	`, r.tables.Members)

	executor := GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membership %s/%s: %w", projectID, userID, domain.ErrNotFound)
	}

	return nil
}
