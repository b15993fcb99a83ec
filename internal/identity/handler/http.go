// Package handler exposes the authentication operations over HTTP.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"loftbase/identity/internal/audit"
	"loftbase/identity/internal/identity/service"
	"loftbase/identity/internal/security"
	"loftbase/identity/internal/server/middleware"
	"loftbase/identity/internal/telemetry"
	eventdomain "loftbase/identity/internal/telemetry/domain"
	userdomain "loftbase/identity/internal/user/domain"
)

const maxLoginBody = 64 * 1024

// AuthHandler maps login, logout, and self-lookup onto the auth service.
type AuthHandler struct {
	svc    *service.AuthService
	events telemetry.EventEmitter
	audits audit.AuditLogger
	logger zerolog.Logger
}

// NewAuthHandler returns a new auth HTTP handler. events and audits may be
// nil to disable event tracking and the audit trail respectively.
func NewAuthHandler(svc *service.AuthService, events telemetry.EventEmitter, audits audit.AuditLogger, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, events: events, audits: audits, logger: logger}
}

// Register installs the auth routes. Two login routes exist so tenant scope
// can arrive either as a route parameter or a tenantId query parameter; the
// route parameter wins when both are present.
func (h *AuthHandler) Register(r *httprouter.Router) {
	r.POST("/api/global/auth/login", h.Login)
	r.POST("/api/global/auth/tenant/:tenantId/login", h.Login)
	r.POST("/api/global/auth/logout", middleware.RequireIdentity(h.svc, h.Logout))
	r.GET("/api/global/users/self", middleware.RequireIdentity(h.svc, h.Self))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	TenantID  string `json:"tenantId"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Status    string `json:"status"`
	Token     string `json:"token,omitempty"`
}

func toUserResponse(u *userdomain.User, token string) *userResponse {
	return &userResponse{
		UserID:    u.ID,
		Email:     u.Email,
		TenantID:  u.TenantID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Status:    string(u.Status),
		Token:     token,
	}
}

// tenantFromRequest resolves the tenant scope hint: the route parameter takes
// precedence over the query parameter.
func tenantFromRequest(r *http.Request, params httprouter.Params) string {
	if t := params.ByName("tenantId"); t != "" {
		return t
	}
	return r.URL.Query().Get("tenantId")
}

// Login runs one authentication attempt. Rejections come back as 403 with the
// exact user-facing message; system failures as 500. A rejection never
// carries or creates a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	tenantID := tenantFromRequest(r, params)

	identity, err := h.svc.Authenticate(r.Context(), req.Email, req.Password, tenantID)
	if err != nil {
		if rej := service.AsRejection(err); rej != nil {
			telemetry.EmitAsync(h.events, r.Context(), &eventdomain.Event{
				TenantID:  tenantID,
				Type:      eventdomain.EventLoginRejected,
				Source:    eventdomain.SourceAuth,
				CreatedAt: time.Now().UTC(),
			})
			if h.audits != nil {
				h.audits.LogEvent(r.Context(), tenantID, "", audit.ActionLoginDenied, audit.ResourceAuth, rej.Message)
			}
			writeJSON(w, http.StatusForbidden, map[string]string{"message": rej.Message})
			return
		}
		h.logger.Error().Err(err).Msg("login failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
		return
	}

	telemetry.EmitAsync(h.events, r.Context(), &eventdomain.Event{
		TenantID:  identity.User.TenantID,
		UserID:    identity.User.ID,
		SessionID: identity.SessionID,
		Type:      eventdomain.EventLoginSucceeded,
		Source:    eventdomain.SourceAuth,
		CreatedAt: time.Now().UTC(),
	})
	if h.audits != nil {
		h.audits.LogEvent(r.Context(), identity.User.TenantID, identity.User.ID, audit.ActionLogin, audit.ResourceAuth, "")
	}
	writeJSON(w, http.StatusOK, toUserResponse(identity.User, identity.Token))
}

// Logout invalidates the caller's session, killing the token that referenced it.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)
	tenantID, _ := middleware.GetTenantID(ctx)
	sessionID, _ := middleware.GetSessionID(ctx)

	if err := h.svc.Logout(ctx, userID, sessionID); err != nil {
		h.logger.Error().Err(err).Msg("logout failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
		return
	}
	telemetry.EmitAsync(h.events, ctx, &eventdomain.Event{
		TenantID:  tenantID,
		UserID:    userID,
		SessionID: sessionID,
		Type:      eventdomain.EventLogout,
		Source:    eventdomain.SourceAuth,
		CreatedAt: time.Now().UTC(),
	})
	if h.audits != nil {
		h.audits.LogEvent(ctx, tenantID, userID, audit.ActionLogout, audit.ResourceAuth, "")
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User logged out."})
}

// Self returns the sanitized record of the authenticated user.
func (h *AuthHandler) Self(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx := r.Context()
	userID, _ := middleware.GetUserID(ctx)
	tenantID, _ := middleware.GetTenantID(ctx)
	sessionID, _ := middleware.GetSessionID(ctx)

	user, err := h.svc.CurrentUser(ctx, &security.SessionClaims{
		UserID:    userID,
		TenantID:  tenantID,
		SessionID: sessionID,
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("self lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Internal Server Error"})
		return
	}
	if user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user, ""))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
