package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"loftbase/identity/internal/security"
	sessiondomain "loftbase/identity/internal/session/domain"
	userdomain "loftbase/identity/internal/user/domain"
)

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*userdomain.User
	byEmail map[string]*userdomain.User
	lookups int
	failGet error
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email, tenantID string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lookups++
	if r.failGet != nil {
		return nil, r.failGet
	}
	u := r.byEmail[email]
	if u == nil {
		return nil, nil
	}
	if tenantID != "" && u.TenantID != tenantID {
		return nil, nil
	}
	return u, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *memUserRepo) lookupCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookups
}

type memSessionStore struct {
	mu         sync.Mutex
	m          map[string]*sessiondomain.Session // key userID+"/"+sessionID
	failCreate error
}

func (s *memSessionStore) Create(ctx context.Context, sess *sessiondomain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate != nil {
		return s.failCreate
	}
	s.m[sess.UserID+"/"+sess.ID] = sess
	return nil
}

func (s *memSessionStore) Get(ctx context.Context, userID, sessionID string) (*sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[userID+"/"+sessionID], nil
}

func (s *memSessionStore) Invalidate(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID+"/"+sessionID)
	return nil
}

func (s *memSessionStore) InvalidateAllForUser(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k := range s.m {
		if sess := s.m[k]; sess.UserID == userID {
			delete(s.m, k)
		}
	}
	return nil
}

func (s *memSessionStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	return string(b)
}

func newTestAuthService(t *testing.T) (*AuthService, *memUserRepo, *memSessionStore) {
	t.Helper()
	users := &memUserRepo{byID: map[string]*userdomain.User{}, byEmail: map[string]*userdomain.User{}}
	sessions := &memSessionStore{m: map[string]*sessiondomain.Session{}}
	minter, err := security.NewTokenMinter("auth-service-test-secret")
	if err != nil {
		t.Fatalf("NewTokenMinter: %v", err)
	}
	svc := NewAuthService(users, sessions, security.NewHasher(bcrypt.MinCost), minter)
	return svc, users, sessions
}

func addUser(users *memUserRepo, u *userdomain.User) {
	users.mu.Lock()
	defer users.mu.Unlock()
	users.byID[u.ID] = u
	users.byEmail[u.Email] = u
}

func TestAuthenticate_EmptyInputsSkipLookup(t *testing.T) {
	svc, users, sessions := newTestAuthService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "", "pw", "")
	if err != ErrEmailRequired {
		t.Errorf("empty email: want ErrEmailRequired, got %v", err)
	}
	_, err = svc.Authenticate(ctx, "a@x.com", "", "")
	if err != ErrPasswordRequired {
		t.Errorf("empty password: want ErrPasswordRequired, got %v", err)
	}
	if n := users.lookupCount(); n != 0 {
		t.Errorf("user lookup invoked %d times for empty inputs, want 0", n)
	}
	if sessions.count() != 0 {
		t.Error("no session may be created for rejected logins")
	}
}

func TestAuthenticate_UserNotFound(t *testing.T) {
	svc, _, sessions := newTestAuthService(t)

	_, err := svc.Authenticate(context.Background(), "nobody@x.com", "pw", "")
	if err != ErrUserNotFound {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
	if sessions.count() != 0 {
		t.Error("no session may be created for rejected logins")
	}
}

func TestAuthenticate_InactiveAndWrongPasswordShareMessage(t *testing.T) {
	svc, users, sessions := newTestAuthService(t)
	ctx := context.Background()
	hash := mustHash(t, "pw")

	addUser(users, &userdomain.User{
		ID: "u-inactive", Email: "inactive@x.com", TenantID: "t1",
		Status: userdomain.UserStatusInactive, PasswordHash: hash,
	})
	addUser(users, &userdomain.User{
		ID: "u-active", Email: "active@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: hash,
	})

	// Inactive user with the CORRECT password.
	_, errInactive := svc.Authenticate(ctx, "inactive@x.com", "pw", "")
	// Active user with a WRONG password.
	_, errWrongPw := svc.Authenticate(ctx, "active@x.com", "wrong", "")

	rejInactive := AsRejection(errInactive)
	rejWrongPw := AsRejection(errWrongPw)
	if rejInactive == nil || rejWrongPw == nil {
		t.Fatalf("both outcomes must be rejections, got %v / %v", errInactive, errWrongPw)
	}
	// Message identity is the anti-enumeration property, so compare strings,
	// not just rejection status.
	if rejInactive.Message != rejWrongPw.Message {
		t.Errorf("inactive message %q must equal wrong-password message %q", rejInactive.Message, rejWrongPw.Message)
	}
	if rejInactive.Message != "Invalid Credentials" {
		t.Errorf("generic message = %q, want %q", rejInactive.Message, "Invalid Credentials")
	}
	if sessions.count() != 0 {
		t.Error("no session may be created for rejected logins")
	}
}

func TestAuthenticate_Success(t *testing.T) {
	svc, users, sessions := newTestAuthService(t)
	ctx := context.Background()

	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
		CreatedAt: time.Now().UTC(),
	})

	id, err := svc.Authenticate(ctx, "a@x.com", "pw", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if id.User.PasswordHash != "" {
		t.Error("returned user must not carry the credential hash")
	}
	if id.User.ID != "u1" || id.User.TenantID != "t1" {
		t.Errorf("identity user = %+v", id.User)
	}

	claims, err := svc.Validate(ctx, id.Token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "u1" || claims.TenantID != "t1" || claims.SessionID != id.SessionID {
		t.Errorf("claims = %+v", claims)
	}

	sess, err := sessions.Get(ctx, "u1", id.SessionID)
	if err != nil || sess == nil {
		t.Fatalf("session keyed by token sessionId must exist, got %v/%v", sess, err)
	}
	if sess.TenantID != "t1" {
		t.Errorf("session tenant = %q, want t1", sess.TenantID)
	}
}

func TestAuthenticate_EmailNormalized(t *testing.T) {
	svc, users, _ := newTestAuthService(t)

	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
	})

	if _, err := svc.Authenticate(context.Background(), "  A@X.com ", "pw", ""); err != nil {
		t.Fatalf("Authenticate with unnormalized email: %v", err)
	}
}

func TestAuthenticate_TenantScope(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
	})

	if _, err := svc.Authenticate(ctx, "a@x.com", "pw", "t1"); err != nil {
		t.Fatalf("matching tenant scope: %v", err)
	}
	// A lookup scoped to the wrong tenant must not leak the user's existence.
	_, err := svc.Authenticate(ctx, "a@x.com", "pw", "t2")
	if err != ErrUserNotFound {
		t.Errorf("cross-tenant lookup: want ErrUserNotFound, got %v", err)
	}
}

func TestAuthenticate_DistinctSessionsPerLogin(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
	})

	first, err := svc.Authenticate(ctx, "a@x.com", "pw", "")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := svc.Authenticate(ctx, "a@x.com", "pw", "")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}
	if first.SessionID == second.SessionID {
		t.Fatal("two successful logins must produce distinct session IDs")
	}
	// Both sessions stay independently valid.
	if _, err := svc.Validate(ctx, first.Token); err != nil {
		t.Errorf("first token: %v", err)
	}
	if _, err := svc.Validate(ctx, second.Token); err != nil {
		t.Errorf("second token: %v", err)
	}
}

func TestAuthenticate_StoreFailureIsNotRejection(t *testing.T) {
	svc, users, sessions := newTestAuthService(t)
	ctx := context.Background()

	users.failGet = errors.New("user store unreachable")
	_, err := svc.Authenticate(ctx, "a@x.com", "pw", "")
	if err == nil || AsRejection(err) != nil {
		t.Fatalf("lookup failure must surface as a system error, got %v", err)
	}

	users.failGet = nil
	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
	})
	sessions.failCreate = errors.New("session store unreachable")
	_, err = svc.Authenticate(ctx, "a@x.com", "pw", "")
	if err == nil || AsRejection(err) != nil {
		t.Fatalf("session-store failure must surface as a system error, got %v", err)
	}
}

func TestValidate_RevokedSession(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
	})

	id, err := svc.Authenticate(ctx, "a@x.com", "pw", "")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := svc.Logout(ctx, "u1", id.SessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	// Signature still verifies, but the session is gone: the token is dead.
	_, err = svc.Validate(ctx, id.Token)
	if err != ErrSessionRevoked {
		t.Errorf("want ErrSessionRevoked, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	svc, users, _ := newTestAuthService(t)
	ctx := context.Background()

	addUser(users, &userdomain.User{
		ID: "u1", Email: "a@x.com", TenantID: "t1",
		Status: userdomain.UserStatusActive, PasswordHash: mustHash(t, "pw"),
	})

	first, _ := svc.Authenticate(ctx, "a@x.com", "pw", "")
	second, _ := svc.Authenticate(ctx, "a@x.com", "pw", "")

	if err := svc.LogoutAll(ctx, "u1"); err != nil {
		t.Fatalf("LogoutAll: %v", err)
	}
	for _, token := range []string{first.Token, second.Token} {
		if _, err := svc.Validate(ctx, token); err != ErrSessionRevoked {
			t.Errorf("token after LogoutAll: want ErrSessionRevoked, got %v", err)
		}
	}
}
