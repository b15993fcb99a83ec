// Package store persists sessions in Redis, keyed by user and session ID.
package store

import (
	"context"

	"loftbase/identity/internal/session/domain"
)

// Store is the session store consumed by the auth service and the identity
// middleware. Create must persist the session before returning so it is
// queryable by ID immediately afterwards; there is no eventual-consistency
// window. Get returns (nil, nil) for a session that does not exist or has
// been invalidated.
type Store interface {
	Create(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, userID, sessionID string) (*domain.Session, error)
	Invalidate(ctx context.Context, userID, sessionID string) error
	InvalidateAllForUser(ctx context.Context, userID string) error
}
