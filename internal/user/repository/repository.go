// Package repository persists users in Postgres.
package repository

import (
	"context"

	"loftbase/identity/internal/user/domain"
)

// Repository is the user store consumed by the auth service.
// Lookups return (nil, nil) when no user matches: absence is a normal
// outcome, distinct from a database failure.
type Repository interface {
	// GetByEmail resolves a user by email. A non-empty tenantID scopes the
	// lookup to that tenant so identical emails in different tenants cannot
	// leak across the boundary; an empty tenantID performs a global lookup.
	GetByEmail(ctx context.Context, email, tenantID string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}
