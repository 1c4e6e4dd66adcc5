package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
	"github.com/abs-valuers/abs_backend/services"
)

func quietLogger() echo.Logger {
	l := log.New("test")
	l.SetOutput(io.Discard)
	return l
}

// memoryPerms is a PermissionStore keyed by email.
type memoryPerms struct {
	mu    sync.Mutex
	perms map[string]models.UserPermission
}

func newMemoryPerms(seed ...models.UserPermission) *memoryPerms {
	m := &memoryPerms{perms: map[string]models.UserPermission{}}
	for _, p := range seed {
		m.perms[p.Email] = p
	}
	return m
}

func (m *memoryPerms) Get(_ context.Context, email string) (*models.UserPermission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.perms[email]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (m *memoryPerms) EnsureClient(_ context.Context, id models.Identity, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.perms[id.Email]; ok {
		return false, nil
	}
	m.perms[id.Email] = models.UserPermission{Email: id.Email, Role: models.RoleClient, UID: id.UID, CreatedAt: now}
	return true, nil
}

func (m *memoryPerms) TouchLastLogin(context.Context, string, time.Time) error { return nil }

func (m *memoryPerms) List(context.Context) ([]models.UserPermission, int, error) {
	return nil, 0, nil
}

func (m *memoryPerms) UpdateRole(context.Context, string, models.Role) error { return nil }

func (m *memoryPerms) Delete(context.Context, string) error { return nil }

func (m *memoryPerms) Watch(context.Context) (repositories.ChangeStream, error) {
	return nil, errors.New("not supported")
}

type noopNotifier struct{}

func (noopNotifier) TeardownUser(string)                  {}
func (noopNotifier) NotifyRoleChange(string, models.Role) {}

type noopRevoker struct{}

func (noopRevoker) RevokeRefreshTokens(context.Context, string) error { return nil }

func newSessions(seed ...models.UserPermission) *services.SessionService {
	return services.NewSessionService(newMemoryPerms(seed...), noopRevoker{}, noopNotifier{}, quietLogger())
}

func newConfig() *services.ConfigStore {
	return services.NewConfigStore(nil, nil, quietLogger())
}

// stubVerifier accepts exactly one token. With revoked set, the revocation
// check rejects it.
type stubVerifier struct {
	token   string
	claim   *auth.Token
	revoked bool
}

func (v stubVerifier) VerifyIDToken(_ context.Context, raw string) (*auth.Token, error) {
	if raw != v.token {
		return nil, errors.New("token signature invalid")
	}
	return v.claim, nil
}

func (v stubVerifier) VerifyIDTokenAndCheckRevoked(ctx context.Context, raw string) (*auth.Token, error) {
	tok, err := v.VerifyIDToken(ctx, raw)
	if err != nil {
		return nil, err
	}
	if v.revoked {
		return nil, errors.New("ID token has been revoked")
	}
	return tok, nil
}

func newContext(e *echo.Echo, req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
