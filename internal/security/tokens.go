package security

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a token is malformed, has a bad
	// signature, or was signed with an unexpected method.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSecret is returned by NewTokenMinter when no signing secret is
	// configured. This is a process misconfiguration, not a per-request error;
	// callers abort startup on it.
	ErrMissingSecret = errors.New("signing secret is not configured")
)

// SessionClaims are the signed claims carried by an identity token:
// the user, the session that anchors its validity, and the tenant scope.
type SessionClaims struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId"`
	TenantID  string `json:"tenantId"`
	jwt.RegisteredClaims
}

// TokenMinter signs and parses identity tokens with a single process-wide
// HMAC secret. The secret is injected once at construction and never mutated,
// so a TokenMinter is safe for concurrent use by any number of in-flight
// logins.
//
// Tokens carry no expiry claim. Revocation is anchored on session liveness:
// a parsed token is only authoritative once its sessionId has been checked
// against the session store.
type TokenMinter struct {
	secret []byte
}

// NewTokenMinter returns a TokenMinter signing with secret.
// Returns ErrMissingSecret when secret is empty.
func NewTokenMinter(secret string) (*TokenMinter, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &TokenMinter{secret: []byte(secret)}, nil
}

// Mint signs a compact HS256 token embedding userID, sessionID, and tenantID.
// Signing is deterministic for fixed inputs and a fixed secret: no iat, jti,
// or expiry claim is set.
func (m *TokenMinter) Mint(userID, sessionID, tenantID string) (string, error) {
	claims := SessionClaims{
		UserID:    userID,
		SessionID: sessionID,
		TenantID:  tenantID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// Parse verifies the token signature and returns its claims.
// Returns ErrInvalidToken for any malformed, tampered, or foreign-signed
// token. Callers must still check session liveness before trusting the
// claims.
func (m *TokenMinter) Parse(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
