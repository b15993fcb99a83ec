package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"loftbase/identity/internal/security"
)

const bearerPrefix = "bearer "

// TokenValidator checks the full token invariant: signature AND session
// liveness. Satisfied by the auth service.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*security.SessionClaims, error)
}

// RequireIdentity wraps a route so it only runs for requests carrying a valid
// Bearer token whose session is still live. Possessing a well-signed token is
// not enough: a token for an invalidated session is refused. On success the
// request context carries user_id, tenant_id, and session_id.
func RequireIdentity(validator TokenValidator, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
		token := extractBearer(r)
		if token == "" {
			unauthorized(w)
			return
		}
		claims, err := validator.Validate(r.Context(), token)
		if err != nil {
			unauthorized(w)
			return
		}
		ctx := WithIdentity(r.Context(), claims.UserID, claims.TenantID, claims.SessionID)
		next(w, r.WithContext(ctx), params)
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "missing or invalid authorization"})
}

// extractBearer returns the Bearer token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
