package domain

import "time"

// Session is the server-held record that authorizes a bearer token. A token
// is only authoritative while the session it references is still live; the
// session store, not the token, is the source of truth for access validity.
type Session struct {
	ID        string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	TenantID  string    `json:"tenantId"`
	CreatedAt time.Time `json:"createdAt"`
}
