package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Permission resources.
const (
	ResourceAuthors  = "authors"
	ResourceBooks    = "books"
	ResourceChapters = "chapters"
	ResourceProgress = "progress"
	ResourceUsers    = "users"
	ResourceJobs     = "jobs"
	ResourceConfig   = "config"
)

// Permission operations.
const (
	OperationRead  = "read"
	OperationWrite = "write"
)

// Predefined role names. Admin corresponds to role level 0 and listener to
// role level 1.
const (
	RoleAdmin    = "admin"
	RoleListener = "listener"
)

// RoleNameForLevel maps the numeric role levels used by the user CLI to role
// names.
func RoleNameForLevel(level int) (string, bool) {
	switch level {
	case 0:
		return RoleAdmin, true
	case 1:
		return RoleListener, true
	}
	return "", false
}

type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r" tstype:"-"`

	ID          int           `bun:",pk,nullzero" json:"id"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Name        string        `bun:",nullzero" json:"name"`
	IsSystem    bool          `json:"is_system"`
	Permissions []*Permission `bun:"rel:has-many,join:id=role_id" json:"permissions,omitempty" tstype:"Permission[]"`
}

type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p" tstype:"-"`

	ID        int    `bun:",pk,nullzero" json:"id"`
	RoleID    int    `json:"role_id"`
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
}

// HasPermission checks if the role has a specific permission.
func (r *Role) HasPermission(resource, operation string) bool {
	for _, p := range r.Permissions {
		if p.Resource == resource && p.Operation == operation {
			return true
		}
	}
	return false
}
