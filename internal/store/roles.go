package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/simpleecom/services/internal/auth"
)

// Roles is the postgres-backed role catalog.
type Roles struct {
	db *sql.DB
}

// NewRoles creates a role repository.
func NewRoles(db *sql.DB) *Roles {
	return &Roles{db: db}
}

// EnsureDefaults seeds the role catalog when it is empty.
func (s *Roles) EnsureDefaults(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM roles`).Scan(&count); err != nil {
		return fmt.Errorf("count roles: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range []string{auth.RoleSuperAdmin, auth.RoleAdmin, auth.RoleUser} {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name,
		); err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

// List returns the role catalog ordered by id.
func (s *Roles) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var r Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}
