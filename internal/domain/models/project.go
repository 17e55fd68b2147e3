package models

import "time"

// Project is the top-level collaboration unit. Documents, members and the
// project conversation all hang off a project.
type Project struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Color       string     `json:"color,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Role is the closed set of member roles. Permissions are a static lookup
// over this enum, not a dynamic table.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Permission names a project-scoped capability.
type Permission string

const (
	PermManageProject  Permission = "manage_project"  // rename/delete project, manage members
	PermUploadDocument Permission = "upload_document" // add or remove documents
	PermChat           Permission = "chat"            // converse with the assistant
	PermView           Permission = "view"            // read project contents
)

// rolePermissions is the static permission table. Owners hold every
// permission, editors everything but project management, viewers read and
// chat only.
var rolePermissions = map[Role]map[Permission]bool{
	RoleOwner: {
		PermManageProject:  true,
		PermUploadDocument: true,
		PermChat:           true,
		PermView:           true,
	},
	RoleEditor: {
		PermUploadDocument: true,
		PermChat:           true,
		PermView:           true,
	},
	RoleViewer: {
		PermChat: true,
		PermView: true,
	},
}

// Can reports whether the role grants the permission.
func (r Role) Can(p Permission) bool {
	return rolePermissions[r][p]
}

// Member associates a user with a project and a role.
type Member struct {
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id"`
	Role      Role      `json:"role"`
	AddedAt   time.Time `json:"added_at"`
}
