// Package service implements the authentication orchestrator: credential
// verification, session issuance, and token minting sequenced into a single
// login operation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"loftbase/identity/internal/security"
	sessiondomain "loftbase/identity/internal/session/domain"
	userdomain "loftbase/identity/internal/user/domain"
)

// Rejection is a terminal login refusal carrying the exact user-facing
// message. A Rejection is not a system failure: the credentials were
// evaluated and refused. Handlers map rejections to 403 and everything else
// to 500 so callers can distinguish "credentials rejected" from "system
// could not evaluate credentials".
type Rejection struct {
	Message string
}

func (r *Rejection) Error() string { return r.Message }

var (
	ErrEmailRequired    = &Rejection{Message: "Email Required."}
	ErrPasswordRequired = &Rejection{Message: "Password Required."}
	ErrUserNotFound     = &Rejection{Message: "User not found"}
	// ErrInvalidCredentials is returned both for a wrong password and for an
	// inactive account. The shared message keeps an attacker from probing
	// account existence or status through the login endpoint.
	ErrInvalidCredentials = &Rejection{Message: "Invalid Credentials"}
)

// ErrSessionRevoked is returned by Validate when a token's signature is fine
// but its session is no longer live. Token possession alone is insufficient.
var ErrSessionRevoked = errors.New("session no longer valid")

// AsRejection returns the *Rejection inside err, or nil if err is a system error.
func AsRejection(err error) *Rejection {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej
	}
	return nil
}

// Identity is the outcome of a successful login: the sanitized user record
// (credential hash stripped), the session that anchors token validity, and
// the signed token itself.
type Identity struct {
	User      *userdomain.User
	SessionID string
	Token     string
}

// UserRepo is the minimal user repository needed by the auth service.
type UserRepo interface {
	GetByEmail(ctx context.Context, email, tenantID string) (*userdomain.User, error)
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// SessionStore is the minimal session store needed by the auth service.
type SessionStore interface {
	Create(ctx context.Context, s *sessiondomain.Session) error
	Get(ctx context.Context, userID, sessionID string) (*sessiondomain.Session, error)
	Invalidate(ctx context.Context, userID, sessionID string) error
	InvalidateAllForUser(ctx context.Context, userID string) error
}

// AuthService sequences lookup, verification, session issuance, and token
// minting. Each login is an independent request-scoped pass with no shared
// mutable state, so one AuthService serves any number of concurrent logins.
type AuthService struct {
	users    UserRepo
	sessions SessionStore
	hasher   *security.Hasher
	minter   *security.TokenMinter
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, sessions SessionStore, hasher *security.Hasher, minter *security.TokenMinter) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		minter:   minter,
	}
}

// Authenticate runs one login attempt. tenantID is an explicit scope hint
// resolved by the transport layer (route parameter over query parameter);
// empty means the email is treated as globally unique.
//
// The flow is a single pass with no retries. Every rejection is terminal and
// happens before session creation; a session and token are only issued after
// the credential has verified. A caller abort after the session write leaves
// an orphaned session behind — accepted, never rolled back here.
func (s *AuthService) Authenticate(ctx context.Context, email, password, tenantID string) (*Identity, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	user, err := s.users.GetByEmail(ctx, email, strings.TrimSpace(tenantID))
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// Inactive accounts and wrong passwords are indistinguishable to the caller.
	if user.Status == userdomain.UserStatusInactive {
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify([]byte(password), user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	sessionID := uuid.New().String()
	sess := &sessiondomain.Session{
		ID:        sessionID,
		UserID:    user.ID,
		TenantID:  user.TenantID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("session create: %w", err)
	}

	token, err := s.minter.Mint(user.ID, sessionID, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("token mint: %w", err)
	}

	return &Identity{
		User:      user.Sanitize(),
		SessionID: sessionID,
		Token:     token,
	}, nil
}

// Validate checks the full token invariant: the signature must verify against
// the current signing secret AND the sessionId it carries must still resolve
// to a live session. Returns the claims on success.
func (s *AuthService) Validate(ctx context.Context, token string) (*security.SessionClaims, error) {
	claims, err := s.minter.Parse(token)
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, claims.UserID, claims.SessionID)
	if err != nil {
		return nil, fmt.Errorf("session lookup: %w", err)
	}
	if sess == nil {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

// CurrentUser returns the sanitized user record for validated claims, or nil
// if the user no longer exists.
func (s *AuthService) CurrentUser(ctx context.Context, claims *security.SessionClaims) (*userdomain.User, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("user lookup: %w", err)
	}
	if user == nil {
		return nil, nil
	}
	return user.Sanitize(), nil
}

// Logout invalidates one session. Idempotent.
func (s *AuthService) Logout(ctx context.Context, userID, sessionID string) error {
	return s.sessions.Invalidate(ctx, userID, sessionID)
}

// LogoutAll invalidates every session of the user, revoking all outstanding
// tokens at once.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	return s.sessions.InvalidateAllForUser(ctx, userID)
}
