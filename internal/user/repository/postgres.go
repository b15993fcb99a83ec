package repository

import (
	"context"
	"database/sql"
	"errors"

	"loftbase/identity/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, tenant_id, first_name, last_name, status, password_hash, created_at, updated_at`

// GetByEmail returns the user with the given email, or nil if not found.
// A non-empty tenantID restricts the match to that tenant. It returns an
// error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email, tenantID string) (*domain.User, error) {
	var row *sql.Row
	if tenantID != "" {
		row = r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1 AND tenant_id = $2`, email, tenantID)
	} else {
		row = r.db.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	}
	return scanUser(row)
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// Create persists the user to the database. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, tenant_id, first_name, last_name, status, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.TenantID,
		nullString(u.FirstName), nullString(u.LastName),
		string(u.Status), u.PasswordHash, u.CreatedAt, u.UpdatedAt)
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var firstName, lastName sql.NullString
	var status string
	err := row.Scan(&u.ID, &u.Email, &u.TenantID, &firstName, &lastName, &status, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.FirstName = firstName.String
	u.LastName = lastName.String
	u.Status = domain.UserStatus(status)
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
