package roles

import (
	"context"
	"database/sql"
	"slices"
	"strings"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/errcodes"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

var validResources = []string{
	models.ResourceAuthors,
	models.ResourceBooks,
	models.ResourceChapters,
	models.ResourceProgress,
	models.ResourceUsers,
	models.ResourceJobs,
	models.ResourceConfig,
}

var validOperations = []string{
	models.OperationRead,
	models.OperationWrite,
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db: db}
}

type RetrieveRoleOptions struct {
	ID   *int
	Name *string
}

func (s *Service) RetrieveRole(ctx context.Context, opts RetrieveRoleOptions) (*models.Role, error) {
	role := &models.Role{}
	q := s.db.NewSelect().
		Model(role).
		Relation("Permissions")

	if opts.ID != nil {
		q = q.Where("r.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("r.name = ? COLLATE NOCASE", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Role")
		}
		return nil, errors.WithStack(err)
	}
	return role, nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*models.Role, error) {
	roles := []*models.Role{}
	err := s.db.NewSelect().
		Model(&roles).
		Relation("Permissions").
		Order("r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return roles, nil
}

// CreateRole adds a custom role with the given permissions.
func (s *Service) CreateRole(ctx context.Context, name string, permissions []PermissionInput) (*models.Role, error) {
	name = strings.TrimSpace(name)
	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}

	_, err := s.RetrieveRole(ctx, RetrieveRoleOptions{Name: &name})
	if err == nil {
		return nil, errcodes.Conflict("A role with this name already exists.")
	}
	if !errors.Is(err, errcodes.NotFound("Role")) {
		return nil, err
	}

	now := time.Now()
	role := &models.Role{CreatedAt: now, UpdatedAt: now, Name: name}
	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(role).Returning("*").Exec(ctx); err != nil {
			return errors.WithStack(err)
		}
		return insertPermissions(ctx, tx, role.ID, permissions)
	})
	if err != nil {
		return nil, err
	}

	return s.RetrieveRole(ctx, RetrieveRoleOptions{ID: &role.ID})
}

// SetPermissions replaces the permissions of a custom role. The predefined
// roles are fixed.
func (s *Service) SetPermissions(ctx context.Context, id int, permissions []PermissionInput) (*models.Role, error) {
	role, err := s.RetrieveRole(ctx, RetrieveRoleOptions{ID: &id})
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, errcodes.Forbidden("Changing a predefined role")
	}
	if err := validatePermissions(permissions); err != nil {
		return nil, err
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Permission)(nil)).
			Where("role_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.NewUpdate().
			Model((*models.Role)(nil)).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		return insertPermissions(ctx, tx, id, permissions)
	})
	if err != nil {
		return nil, err
	}

	return s.RetrieveRole(ctx, RetrieveRoleOptions{ID: &id})
}

// DeleteRole removes a custom role that no user holds.
func (s *Service) DeleteRole(ctx context.Context, id int) error {
	role, err := s.RetrieveRole(ctx, RetrieveRoleOptions{ID: &id})
	if err != nil {
		return err
	}
	if role.IsSystem {
		return errcodes.Forbidden("Deleting a predefined role")
	}

	count, err := s.db.NewSelect().
		Model((*models.User)(nil)).
		Where("role_id = ?", id).
		Count(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if count > 0 {
		return errcodes.Conflict("The role is still assigned to users.")
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*models.Permission)(nil)).
			Where("role_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = tx.NewDelete().
			Model((*models.Role)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func validatePermissions(permissions []PermissionInput) error {
	for _, p := range permissions {
		if !slices.Contains(validResources, p.Resource) {
			return errcodes.ValidationError("Invalid resource: " + p.Resource)
		}
		if !slices.Contains(validOperations, p.Operation) {
			return errcodes.ValidationError("Invalid operation: " + p.Operation)
		}
	}
	return nil
}

func insertPermissions(ctx context.Context, tx bun.Tx, roleID int, permissions []PermissionInput) error {
	if len(permissions) == 0 {
		return nil
	}
	seen := map[PermissionInput]struct{}{}
	rows := make([]*models.Permission, 0, len(permissions))
	for _, p := range permissions {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		rows = append(rows, &models.Permission{RoleID: roleID, Resource: p.Resource, Operation: p.Operation})
	}
	_, err := tx.NewInsert().Model(&rows).Exec(ctx)
	return errors.WithStack(err)
}
