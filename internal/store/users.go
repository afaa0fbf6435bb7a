package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/simpleecom/services/internal/auth"
)

// Users is the postgres-backed user repository. It also implements
// auth.CredentialVerifier for the login flow.
type Users struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUsers creates a user repository.
func NewUsers(db *sql.DB, logger *zap.Logger) *Users {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Users{db: db, logger: logger}
}

// Create inserts a user with the given canonical role set. Roles must
// already exist in the catalog.
func (s *Users) Create(ctx context.Context, username, email, passwordHash string, roles auth.RoleSet) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (username, email, password_hash) VALUES ($1, $2, $3) RETURNING id`,
		username, email, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicate
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	for _, role := range roles.Slice() {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2`,
			id, role,
		)
		if err != nil {
			return 0, fmt.Errorf("link role %s: %w", role, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("link role %s: %w", role, err)
		}
		if n == 0 {
			return 0, fmt.Errorf("role %s: %w", role, ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// ExistsByUsername reports whether a user with the username exists.
func (s *Users) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query user existence: %w", err)
	}
	return exists, nil
}

// ExistsByEmail reports whether a user with the email exists.
func (s *Users) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query email existence: %w", err)
	}
	return exists, nil
}

// FindByUsername loads a user and its role names.
func (s *Users) FindByUsername(ctx context.Context, username string) (*User, error) {
	u := &User{}
	var roles pq.StringArray
	err := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.enabled, u.created_at,
		       COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		WHERE u.username = $1
		GROUP BY u.id`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Enabled, &u.CreatedAt, &roles)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	u.Roles = roles
	return u, nil
}

// List returns all users with their role names.
func (s *Users) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.username, u.email, u.enabled, u.created_at,
		       COALESCE(array_agg(r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		LEFT JOIN roles r ON r.id = ur.role_id
		GROUP BY u.id
		ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		var roles pq.StringArray
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.Enabled, &u.CreatedAt, &roles); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.Roles = roles
		users = append(users, u)
	}
	return users, rows.Err()
}

// ToggleEnabled flips the enabled flag and returns the new state.
func (s *Users) ToggleEnabled(ctx context.Context, id int64) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx,
		`UPDATE users SET enabled = NOT enabled WHERE id = $1 RETURNING enabled`, id,
	).Scan(&enabled)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("toggle user: %w", err)
	}
	return enabled, nil
}

// Delete removes a user.
func (s *Users) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// VerifyCredentials implements auth.CredentialVerifier. Every failure —
// unknown user, disabled account, wrong password, store error — collapses
// to auth.ErrInvalidCredentials; internal detail goes to the log only.
func (s *Users) VerifyCredentials(ctx context.Context, username, password string) (*auth.Principal, error) {
	u, err := s.FindByUsername(ctx, username)
	if err != nil {
		if err != ErrNotFound {
			s.logger.Warn("credential lookup failed", zap.String("username", username), zap.Error(err))
		}
		return nil, auth.ErrInvalidCredentials
	}
	if !u.Enabled {
		s.logger.Warn("login attempt for disabled user", zap.String("username", username))
		return nil, auth.ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, auth.ErrInvalidCredentials
	}
	return auth.NewPrincipal(u.Username, u.Roles), nil
}

// isUniqueViolation reports whether err is a postgres unique constraint error.
func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}
