package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE roles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				is_system BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_roles_name ON roles (name)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE permissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				role_id INTEGER REFERENCES roles (id) NOT NULL,
				resource TEXT NOT NULL,
				operation TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_permissions_role_resource_operation ON permissions (role_id, resource, operation)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				username TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role_id INTEGER REFERENCES roles (id) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				must_change_password BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_username ON users (username COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}

		seeds := map[string]map[string][]string{
			"admin": {
				"authors":  {"read", "write"},
				"books":    {"read", "write"},
				"chapters": {"read", "write"},
				"progress": {"read", "write"},
				"users":    {"read", "write"},
				"jobs":     {"read", "write"},
				"config":   {"read"},
			},
			"listener": {
				"authors":  {"read"},
				"books":    {"read"},
				"chapters": {"read"},
				"progress": {"read", "write"},
				"config":   {"read"},
			},
		}
		for _, roleName := range []string{"admin", "listener"} {
			_, err = db.Exec(`INSERT INTO roles (name, is_system) VALUES (?, TRUE)`, roleName)
			if err != nil {
				return errors.WithStack(err)
			}
			var roleID int
			err = db.QueryRow(`SELECT id FROM roles WHERE name = ?`, roleName).Scan(&roleID)
			if err != nil {
				return errors.WithStack(err)
			}
			for resource, operations := range seeds[roleName] {
				for _, operation := range operations {
					_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, ?)`,
						roleID, resource, operation)
					if err != nil {
						return errors.WithStack(err)
					}
				}
			}
		}

		return nil
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec("DROP TABLE IF EXISTS users")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS permissions")
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec("DROP TABLE IF EXISTS roles")
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
