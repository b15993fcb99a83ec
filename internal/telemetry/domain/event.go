package domain

import (
	"encoding/json"
	"time"
)

// Event is an auth event (tenant-scoped, optional user/session).
type Event struct {
	TenantID  string          `json:"tenantId"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Type      string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Auth event types emitted by the login handlers.
const (
	EventLoginSucceeded = "auth:login:succeeded"
	EventLoginRejected  = "auth:login:rejected"
	EventLogout         = "auth:logout"
)

// SourceAuth is the Source value for events produced by this service.
const SourceAuth = "identity"
