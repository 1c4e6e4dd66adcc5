package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/abs-valuers/abs_backend/models"
	"github.com/abs-valuers/abs_backend/repositories"
)

// lastLoginInterval throttles lastLogin writes for chatty clients.
const lastLoginInterval = 10 * time.Minute

// SessionService resolves the role of an authenticated identity.
type SessionService struct {
	perms    PermissionStore
	revoker  TokenRevoker
	notifier SessionNotifier
	logger   echo.Logger
	now      func() time.Time

	mu      sync.Mutex
	touched map[string]time.Time
}

func NewSessionService(perms PermissionStore, revoker TokenRevoker, notifier SessionNotifier, logger echo.Logger) *SessionService {
	return &SessionService{
		perms:    perms,
		revoker:  revoker,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		touched:  make(map[string]time.Time),
	}
}

// Resolve never fails: any lookup or create failure degrades to a client session.
func (s *SessionService) Resolve(ctx context.Context, id models.Identity) *models.Session {
	id.Email = models.NormalizeEmail(id.Email)
	sess := &models.Session{Identity: id, Role: models.RoleClient}
	if id.Email == "" {
		return sess
	}

	perm, err := s.perms.Get(ctx, id.Email)
	switch {
	case err == nil:
		sess.Role = perm.Role
		s.touch(ctx, id.Email)
	case errors.Is(err, repositories.ErrNotFound):
		created, err := s.perms.EnsureClient(ctx, id, s.now())
		if err != nil {
			s.logger.Warnf("permission record for %s not created, continuing as client: %v", id.Email, err)
			return sess
		}
		s.markTouched(id.Email)
		if !created {
			// Lost a race with another first request; adopt whatever was stored.
			if perm, err := s.perms.Get(ctx, id.Email); err == nil {
				sess.Role = perm.Role
			}
		}
	default:
		s.logger.Warnf("permission lookup for %s failed, continuing as client: %v", id.Email, err)
	}
	return sess
}

func (s *SessionService) touch(ctx context.Context, email string) {
	s.mu.Lock()
	last, ok := s.touched[email]
	due := !ok || s.now().Sub(last) >= lastLoginInterval
	s.mu.Unlock()
	if !due {
		return
	}
	if err := s.perms.TouchLastLogin(ctx, email, s.now()); err != nil {
		s.logger.Warnf("lastLogin not recorded for %s: %v", email, err)
		return
	}
	s.markTouched(email)
}

func (s *SessionService) markTouched(email string) {
	s.mu.Lock()
	s.touched[email] = s.now()
	s.mu.Unlock()
}

// SignOut revokes the provider session and releases every live view of the user.
func (s *SessionService) SignOut(ctx context.Context, sess *models.Session) error {
	if s.notifier != nil {
		s.notifier.TeardownUser(sess.Identity.UID)
	}
	s.mu.Lock()
	delete(s.touched, sess.Identity.Email)
	s.mu.Unlock()
	if s.revoker == nil {
		return nil
	}
	return s.revoker.RevokeRefreshTokens(ctx, sess.Identity.UID)
}
